package services

import "github.com/domcourse/backend/internal/models"

const (
	sampleLevelTitle   = "Основы DOM"
	sampleSectionTitle = "Введение в DOM"
	sampleLessonTitle  = "Что такое DOM"
)

const sampleTheory = `
<h2>Введение в JavaScript DOM</h2>
<p>Document Object Model (DOM) - это программный интерфейс для HTML и XML документов.
Он представляет страницу так, что программы могут изменять структуру документа, стиль и содержимое.</p>

<h3>Основные концепции</h3>
<p>DOM представляет документ как дерево объектов. Каждый HTML элемент является объектом в этом дереве.</p>

<pre><code class="language-javascript">
// Получение элемента по ID
const element = document.getElementById('myElement');

// Изменение содержимого
element.textContent = 'Новый текст';

// Изменение стиля
element.style.color = 'blue';
</code></pre>

<p>С помощью JavaScript мы можем:</p>
<ul>
    <li>Находить элементы на странице</li>
    <li>Изменять содержимое элементов</li>
    <li>Изменять стили элементов</li>
    <li>Добавлять обработчики событий</li>
</ul>
`

// SampleLessonContent returns the introductory DOM lesson used to seed new content
func SampleLessonContent() models.LessonContent {
	return models.LessonContent{
		Theory: sampleTheory,
		Quiz: []models.QuizItem{
			{
				Question: "Что означает аббревиатура DOM?",
				Options: []string{
					"Document Object Model",
					"Dynamic Object Management",
					"Data Object Model",
					"Document Oriented Markup",
				},
				CorrectAnswer: 0,
			},
			{
				Question: "Какой метод используется для получения элемента по ID?",
				Options: []string{
					"document.getElement()",
					"document.getElementById()",
					"document.findById()",
					"document.selectById()",
				},
				CorrectAnswer: 1,
			},
			{
				Question: "Как изменить текстовое содержимое элемента?",
				Options: []string{
					"element.text = 'новый текст'",
					"element.content = 'новый текст'",
					"element.textContent = 'новый текст'",
					"element.innerHTML = 'новый текст'",
				},
				CorrectAnswer: 2,
			},
		},
		Tasks: []string{
			"Создайте HTML страницу с элементом h1 и кнопкой. При нажатии на кнопку текст заголовка должен изменяться.",
			"Найдите все элементы с классом 'highlight' и измените их цвет фона на желтый.",
			"Создайте функцию, которая добавляет новый элемент списка в существующий ul при клике на кнопку.",
		},
	}
}
