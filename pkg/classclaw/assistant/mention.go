package assistant

import (
	"strings"
)

// Addressed reports whether the message mentions the bot, with or without
// the handle suffix. Matching is case-insensitive substring search, the way
// chat clients render mentions.
func Addressed(text, handle, suffix string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "@"+strings.ToLower(handle)) {
		return true
	}
	trimmed := strings.TrimSuffix(handle, suffix)
	if trimmed != handle && strings.Contains(lower, "@"+strings.ToLower(trimmed)) {
		return true
	}
	return false
}

// StripInvocation removes the invocation phrase from an addressed message,
// recovering the command payload. It tries a fixed ordered list of phrase
// variants (mention+name+incantation, mention+incantation, bare
// name+incantation, bare mention) and removes the first match only, once,
// case-insensitively, then trims surrounding whitespace.
func StripInvocation(text, name, handle, suffix, incantation string) string {
	trimmed := strings.TrimSuffix(handle, suffix)

	// Mention-carrying variants come first so a bare name+incantation match
	// can never leave a dangling "@" behind.
	variants := []string{
		"@" + handle + " " + name + " " + incantation,
		"@" + trimmed + " " + name + " " + incantation,
		"@" + handle + " " + incantation,
		"@" + trimmed + " " + incantation,
		name + " " + incantation,
		"@" + handle,
		"@" + trimmed,
	}

	lower := strings.ToLower(text)
	for _, phrase := range variants {
		if phrase == "" || phrase == "@" {
			continue
		}
		idx := strings.Index(lower, strings.ToLower(phrase))
		if idx < 0 {
			continue
		}
		text = text[:idx] + text[idx+len(phrase):]
		break
	}

	return strings.TrimSpace(text)
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
