package authors

import (
	"fmt"
	"strings"
)

// FormatPenName decides what an author's display name should be when the
// source's real name disagrees with the name currently on record.
//
// If both names share their first and last tokens, the two are already the
// same person formatted the same way, so penName is returned unchanged;
// this keeps repeated enrichment from stacking quotes onto an
// already-formatted name. If penName is corroborated by the declared
// alternate names, the result embeds it inside the real name, e.g.
// "Frederick 'Max Brand' Faust". Otherwise the real name wins as-is.
func FormatPenName(realName, penName string, alternateNames []string) string {
	realTokens := strings.Fields(realName)
	penTokens := strings.Fields(penName)

	if len(realTokens) >= 2 && len(penTokens) >= 2 &&
		strings.EqualFold(realTokens[0], penTokens[0]) &&
		strings.EqualFold(realTokens[len(realTokens)-1], penTokens[len(penTokens)-1]) {
		return penName
	}

	if len(realTokens) >= 2 {
		for _, alt := range alternateNames {
			if strings.EqualFold(alt, penName) {
				return fmt.Sprintf("%s '%s' %s", realTokens[0], penName, realTokens[len(realTokens)-1])
			}
		}
	}

	return realName
}
