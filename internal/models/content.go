package models

// AccessLevel уровень доступа, вычисляемый из состояния подписки.
type AccessLevel string

const (
	AccessNone  AccessLevel = "NONE"
	AccessBasic AccessLevel = "BASIC"
	AccessUltra AccessLevel = "ULTRA"
)

// AccessClass класс доступа, к которому относится тип контента.
type AccessClass string

const (
	// ClassFree — контент без ограничений.
	ClassFree AccessClass = "FREE"
	// ClassBasic — нужна любая активная подписка.
	ClassBasic AccessClass = "BASIC"
	// ClassUltra — нужна годовая или пожизненная подписка.
	ClassUltra AccessClass = "ULTRA"
)

// ContentType тип учебного материала.
type ContentType string

const (
	ContentPDFFree      ContentType = "PDF_FREE"
	ContentNotesSimple  ContentType = "NOTES_SIMPLE"
	ContentNotesPremium ContentType = "NOTES_PREMIUM"
	ContentMCQSimple    ContentType = "MCQ_SIMPLE"
	ContentMCQAnalysis  ContentType = "MCQ_ANALYSIS"
	ContentWeeklyTest   ContentType = "WEEKLY_TEST"
	ContentPDFPremium   ContentType = "PDF_PREMIUM"
	ContentPDFViewer    ContentType = "PDF_VIEWER"
)

var contentClasses = map[ContentType]AccessClass{
	ContentPDFFree:      ClassFree,
	ContentNotesSimple:  ClassFree,
	ContentNotesPremium: ClassBasic,
	ContentMCQSimple:    ClassBasic,
	ContentMCQAnalysis:  ClassBasic,
	ContentWeeklyTest:   ClassBasic,
	ContentPDFPremium:   ClassUltra,
	ContentPDFViewer:    ClassUltra,
}

// Valid сообщает, известен ли тип контента.
func (t ContentType) Valid() bool {
	_, ok := contentClasses[t]
	return ok
}

// Class возвращает класс доступа типа контента.
// Неизвестные типы относятся к ULTRA, чтобы закрыть доступ по умолчанию.
func (t ContentType) Class() AccessClass {
	if class, ok := contentClasses[t]; ok {
		return class
	}
	return ClassUltra
}

// MCQ вопрос с вариантами ответа.
type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// ContentArtifact сгенерированный или загруженный администратором материал.
// Все поля omitempty: частичный артефакт несёт только заданные поля,
// на этом построена merge-семантика основного хранилища.
type ContentArtifact struct {
	Title            string      `json:"title,omitempty"`
	Type             ContentType `json:"type,omitempty"`
	Content          string      `json:"content,omitempty"`
	MCQs             []MCQ       `json:"mcqs,omitempty"`
	PDFLink          string      `json:"pdfLink,omitempty"`
	PremiumLink      string      `json:"premiumLink,omitempty"`
	PremiumVideoLink string      `json:"premiumVideoLink,omitempty"`
	Language         string      `json:"language,omitempty"`
	Price            *int        `json:"price,omitempty"`
}

// ContentRequest описывает запрос на открытие главы конкретного типа.
type ContentRequest struct {
	Board        string      `json:"board" validate:"required"`
	ClassLevel   string      `json:"classLevel" validate:"required"`
	Stream       string      `json:"stream,omitempty"`
	Subject      string      `json:"subject" validate:"required"`
	ChapterID    string      `json:"chapterId" validate:"required"`
	ChapterTitle string      `json:"chapterTitle,omitempty"`
	Language     string      `json:"language,omitempty"`
	Type         ContentType `json:"type" validate:"required"`
}

// IsSenior сообщает, относится ли класс к старшей школе (11 или 12), где важен профиль.
func (r ContentRequest) IsSenior() bool {
	return r.ClassLevel == "11" || r.ClassLevel == "12"
}

// Merge возвращает копию артефакта с заданными полями patch поверх текущих.
// Пустые поля patch значения не меняют, как при merge-записи документа.
func (a ContentArtifact) Merge(patch ContentArtifact) ContentArtifact {
	if patch.Title != "" {
		a.Title = patch.Title
	}
	if patch.Type != "" {
		a.Type = patch.Type
	}
	if patch.Content != "" {
		a.Content = patch.Content
	}
	if len(patch.MCQs) > 0 {
		a.MCQs = patch.MCQs
	}
	if patch.PDFLink != "" {
		a.PDFLink = patch.PDFLink
	}
	if patch.PremiumLink != "" {
		a.PremiumLink = patch.PremiumLink
	}
	if patch.PremiumVideoLink != "" {
		a.PremiumVideoLink = patch.PremiumVideoLink
	}
	if patch.Language != "" {
		a.Language = patch.Language
	}
	if patch.Price != nil {
		a.Price = patch.Price
	}
	return a
}
