package indicator

import (
	"fmt"

	"github.com/rbright/basket/internal/locale"
)

type messages struct {
	title     string
	listening string
	heardFmt  string
	errorText string
}

func (m messages) heard(text string) string {
	return fmt.Sprintf(m.heardFmt, text)
}

func messagesFor(tag locale.Tag) messages {
	switch tag {
	case locale.HindiIN:
		return messages{
			title:     "Basket",
			listening: "सुन रहा है…",
			heardFmt:  "सुना: %s",
			errorText: "वाक् पहचान में त्रुटि",
		}
	case locale.EnglishUS:
		fallthrough
	default:
		return messages{
			title:     "Basket",
			listening: "Listening…",
			heardFmt:  "Heard: %s",
			errorText: "Speech recognition error",
		}
	}
}
