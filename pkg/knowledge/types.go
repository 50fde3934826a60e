package knowledge

// Item is one question/answer pair of the knowledge base. Its identity is
// its position in the Base.
type Item struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// Base is the ordered, read-only set of items loaded at startup.
type Base []Item

// Questions returns the questions in index order.
func (b Base) Questions() []string {
	questions := make([]string, len(b))
	for i, item := range b {
		questions[i] = item.Question
	}
	return questions
}

// Len returns the number of items.
func (b Base) Len() int {
	return len(b)
}
