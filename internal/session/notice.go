package session

import (
	"fmt"

	apperrors "github.com/verte-zerg/concerto/internal/errors"
)

// Level grades a notice.
type Level int

// Notice levels.
const (
	LevelNone Level = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return ""
}

// Notice is a one-line message shown after an action.
type Notice struct {
	Level Level
	Text  string
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool {
	return n.Level == LevelNone || n.Text == ""
}

// Info builds an info notice.
func Info(text string) Notice { return Notice{Level: LevelInfo, Text: text} }

// Success builds a success notice.
func Success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }

// Failure turns an error into a notice, downgrading warning codes.
func Failure(err error) Notice {
	if err == nil {
		return Notice{}
	}
	if apperrors.IsWarning(err) {
		return Notice{Level: LevelWarning, Text: apperrors.Message(err)}
	}
	return Notice{Level: LevelError, Text: apperrors.Message(err)}
}

// SavedNotice reports a successful save.
func SavedNotice(n int) Notice {
	return Success(fmt.Sprintf("Saved %d ratings.", n))
}

// LoadedNotice reports a successful load.
func LoadedNotice(n int) Notice {
	return Success(fmt.Sprintf("Loaded %d ratings.", n))
}
