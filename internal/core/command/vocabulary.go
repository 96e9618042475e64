package command

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

var ErrUnknownLanguage = errors.New("command: unknown language")

// Vocabulary holds the keywords of one deployment language.
type Vocabulary struct {
	Language  string
	Deliver   string
	Collect   string
	Warehouse string
	Shop      string
	Exit      string
}

var (
	English = Vocabulary{
		Language:  "en",
		Deliver:   "deliver",
		Collect:   "collect",
		Warehouse: "warehouse",
		Shop:      "shop",
		Exit:      "exit",
	}
	Russian = Vocabulary{
		Language:  "ru",
		Deliver:   "доставить",
		Collect:   "забрать",
		Warehouse: "склад",
		Shop:      "магазин",
		Exit:      "выход",
	}
)

var vocabularies = map[string]Vocabulary{
	English.Language: English,
	Russian.Language: Russian,
}

func VocabularyFor(language string) (Vocabulary, error) {
	v, ok := vocabularies[strings.ToLower(language)]
	if !ok {
		return Vocabulary{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	return v, nil
}

// IsExit reports whether line is the exit keyword, ignoring case and surrounding space.
func (v Vocabulary) IsExit(line string) bool {
	return equalFold(strings.TrimSpace(line), v.Exit)
}

// Usage lists the two command forms.
func (v Vocabulary) Usage() []string {
	return []string{
		fmt.Sprintf("%s <n> <product> from %s to %s", v.Deliver, v.Warehouse, v.Shop),
		fmt.Sprintf("%s <n> <product> from %s", v.Collect, v.Shop),
	}
}

// equalFold compares with full Unicode case folding. A new Caser is built per
// call because Casers keep state and are not safe for concurrent use.
func equalFold(a, b string) bool {
	c := cases.Fold()
	return c.String(a) == c.String(b)
}
