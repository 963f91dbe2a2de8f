package accounts

import (
	"context"
	"regexp"
	"unicode"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// prefixLen is how many leading characters are expanded into case
// permutations. Performance stops improving beyond 4.
const prefixLen = 4

// caseInsensitiveSelector builds a selector that finds documents whose
// fieldName matches value case-insensitively. MongoDB has no case
// insensitive indexes and case insensitive regex queries are slow, so the
// selector ORs anchored prefix-exact regexes for every case permutation of
// the first few characters (prefix regexes do use indexes), ANDed with a
// full case insensitive equality check that only runs against the small
// candidate set the prefixes select.
func caseInsensitiveSelector(fieldName, value string) bson.M {
	runes := []rune(value)
	prefix := runes[:min(prefixLen, len(runes))]

	perms := casePermutations(string(prefix))
	or := make(bson.A, len(perms))
	for i, p := range perms {
		or[i] = bson.M{fieldName: bson.Regex{Pattern: "^" + regexp.QuoteMeta(p)}}
	}

	return bson.M{"$and": bson.A{
		bson.M{"$or": or},
		bson.M{fieldName: bson.Regex{
			Pattern: "^" + regexp.QuoteMeta(value) + "$",
			Options: "i",
		}},
	}}
}

// casePermutations returns all case variations of s. Each cased letter
// doubles the result, characters without distinct cases contribute a
// single variant. The empty string yields [""].
func casePermutations(s string) []string {
	perms := []string{""}
	for _, ch := range s {
		lower, upper := unicode.ToLower(ch), unicode.ToUpper(ch)
		next := make([]string, 0, len(perms)*2)
		for _, p := range perms {
			if lower == upper {
				next = append(next, p+string(ch))
			} else {
				next = append(next, p+string(lower), p+string(upper))
			}
		}
		perms = next
	}
	return perms
}

// checkDuplicates fails with a ConflictError naming displayName if any
// user other than excludeID holds a value on fieldName that matches value
// case-insensitively. A zero excludeID excludes nobody.
func (a *Accounts) checkDuplicates(ctx context.Context, fieldName, displayName, value string, excludeID bson.ObjectID) error {
	if value == "" {
		return nil
	}
	// Test seam, never set in production.
	if a.skipDuplicateCheck != nil && a.skipDuplicateCheck(value) {
		return nil
	}

	cursor, err := a.cu.Find(ctx, caseInsensitiveSelector(fieldName, value))
	if err != nil {
		return err
	}
	var matched []User
	if err := cursor.All(ctx, &matched); err != nil {
		return err
	}

	for _, u := range matched {
		if excludeID.IsZero() || u.ID != excludeID {
			return &ConflictError{Field: displayName}
		}
	}
	return nil
}
