package redact

// Name маскирует имя владельца счёта, оставляя первые два символа.
func Name(s string) string {
	r := []rune(s)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}

	return "***"
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
