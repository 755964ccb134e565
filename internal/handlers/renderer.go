package handlers

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"unicode"

	"github.com/domcourse/backend/internal/models"
)

// Page names accepted by Renderer.Render
const (
	pageIndex      = "index"
	pageLevel      = "level"
	pageLesson     = "lesson"
	pageLogin      = "admin/login"
	pageDashboard  = "admin/dashboard"
	pageEditLesson = "admin/edit_lesson"
)

const layoutTemplate = "templates/layout.html"

var pageTemplates = map[string]string{
	pageIndex:      "templates/index.html",
	pageLevel:      "templates/level.html",
	pageLesson:     "templates/lesson.html",
	pageLogin:      "templates/admin/login.html",
	pageDashboard:  "templates/admin/dashboard.html",
	pageEditLesson: "templates/admin/edit_lesson.html",
}

var templateFuncs = template.FuncMap{
	"add":       func(a, b int) int { return a + b },
	"slugify":   Slugify,
	"lessonURL": LessonURL,
	// theory is HTML written by the admin in the lesson editor
	"theory": func(s string) template.HTML { return template.HTML(s) },
	"options": func() []int {
		opts := make([]int, models.QuizOptionsCount)
		for i := range opts {
			opts[i] = i
		}
		return opts
	},
	"option": func(q models.QuizItem, i int) string {
		if i < 0 || i >= len(q.Options) {
			return ""
		}
		return q.Options[i]
	},
}

// Renderer executes the site pages, each parsed together with the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template from fsys
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageTemplates))
	for name, file := range pageTemplates {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys, layoutTemplate, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page with data
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Slugify turns a title into a URL segment. Letters of any script are kept.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// LessonURL builds the public deep link of a lesson. The slugs are decorative.
func LessonURL(levelOrder int, section models.Section, lesson models.Lesson) string {
	sectionSlug := Slugify(section.Title)
	if sectionSlug == "" {
		sectionSlug = "section"
	}
	lessonSlug := Slugify(lesson.Title)
	if lessonSlug == "" {
		lessonSlug = "lesson"
	}
	return fmt.Sprintf("/level-%d/section-%d-%s/lesson-%d-%s",
		levelOrder, section.OrderIndex, sectionSlug, lesson.OrderIndex, lessonSlug)
}
