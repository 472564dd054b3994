package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/services"
)

// ChatConfig holds the word lists for the chat filter. Filtered words
// are masked for everyone, strict words only for accounts with the
// strict filter enabled, insta-mute words trigger an automatic mute.
type ChatConfig struct {
	FilteredWords  []string `json:"filtered_words"`
	StrictWords    []string `json:"strict_words"`
	InstaMuteWords []string `json:"instamute_words"`
}

func (c *ChatConfig) validate() error {
	el := errors.NewErrorList()

	for _, w := range c.InstaMuteWords {
		if w == "" {
			el.Add(fmt.Errorf("instamute_words may not contain empty entries"))
		}
	}

	return el.Err()
}

func (c *ChatConfig) BuildFilter() *services.WordFilter {
	return services.NewWordFilter(c.FilteredWords, c.StrictWords, c.InstaMuteWords)
}
