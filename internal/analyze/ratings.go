package analyze

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pagewatch/pagewatch/internal/news"
)

// proximityWindow is how far past a title mention to look for a rating
// when none of the structured patterns matched.
const proximityWindow = 300

var (
	labelledRatingRe  = regexp.MustCompile(`(?i)rating:?\s*([1-5])\b`)
	leadingRatingRe   = regexp.MustCompile(`(?m)^([1-5])[.:]`)
	proximityRatingRe = regexp.MustCompile(`(?i)rating:?\s*([1-5])`)
)

// overallRating pulls the top-level 1-5 verdict out of free-form
// analysis text. Zero means no rating was found.
func overallRating(text string) int {
	m := labelledRatingRe.FindStringSubmatch(text)
	if m == nil {
		m = leadingRatingRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0
	}
	rating, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return rating
}

// itemRatingPatterns matches the formats LLMs have been seen to use
// when rating a named item. %s is the quoted item title.
var itemRatingPatterns = []string{
	// **Title (date)** ... Rating: 3
	`(?is)\*\*%s(?:\s*\([^)]*\))?\*\*(?:[^*]*?rating:\s*([1-5]))`,
	// Title - Rating: 3
	`(?is)%s(?:[^-]*)-[^-]*rating:\s*([1-5])`,
	// Title, then rating on a later line
	`(?is)%s(?:.{0,200}?)(?:\n|\r)(?:.{0,100}?)rating:\s*([1-5])`,
	// - Title ... Rating: 3
	`(?is)[•*-]\s*%s(?:.{0,100}?)rating:\s*([1-5])`,
	// **Title (3/5)**
	`(?is)\*\*%s[^(]*\([^)]*([1-5])[^)]*\)`,
	// Title ... 3/5
	`(?is)%s[^0-9]*?([1-5])\s*/\s*5`,
	// **Title** with - **Rating: 3** on the next line
	`(?is)\*\*%s\*\*(?:\s*\([^)]*\))?(?:.{0,50}?)\n\s*-\s*\*\*rating:\s*([1-5])\*\*`,
}

// associateRatings attributes per-item ratings found in the analysis
// text to the items they name. Items the text never rates come back
// unchanged.
func associateRatings(text string, items []news.Item) []news.Item {
	if text == "" || len(items) == 0 {
		return items
	}

	rated := make([]news.Item, len(items))
	copy(rated, items)

	for i := range rated {
		title := rated[i].Key()
		if title == "" {
			continue
		}

		if rating, ok := matchItemRating(text, title); ok {
			rated[i].Rating = rating
			continue
		}

		// Last resort: any rating shortly after the title mention.
		if pos := strings.Index(text, title); pos >= 0 {
			end := pos + proximityWindow
			if end > len(text) {
				end = len(text)
			}
			if m := proximityRatingRe.FindStringSubmatch(text[pos:end]); m != nil {
				if rating, err := strconv.Atoi(m[1]); err == nil {
					rated[i].Rating = rating
				}
			}
		}
	}

	return rated
}

func matchItemRating(text, title string) (int, bool) {
	quoted := regexp.QuoteMeta(title)
	for _, pattern := range itemRatingPatterns {
		re, err := regexp.Compile(strings.Replace(pattern, "%s", quoted, 1))
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		rating, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return rating, true
	}
	return 0, false
}
