package controller

// Level is the severity of a status message.
type Level string

const (
	LevelNone    Level = ""
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Status is the message line shown to the user.
type Status struct {
	Message string
	Level   Level
}

// Visible reports whether there is anything to show.
func (s Status) Visible() bool {
	return s.Level != LevelNone && s.Message != ""
}

// CharLevel grades the length of the input text.
type CharLevel int

const (
	CharNormal CharLevel = iota
	CharNearLimit
	CharAtLimit
)

// Character counter thresholds.
const (
	NearLimitChars = 4000
	AtLimitChars   = 4500
)

// CharCountLevel grades a character count for the counter color.
func CharCountLevel(n int) CharLevel {
	switch {
	case n > AtLimitChars:
		return CharAtLimit
	case n > NearLimitChars:
		return CharNearLimit
	default:
		return CharNormal
	}
}
