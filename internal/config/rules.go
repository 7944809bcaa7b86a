package config

// Rules is the lexicon driving the normalization engine: month
// translations, clause keywords, scoring phrase lists, and the category
// keyword tables. All of it is deployment configuration, not code; a
// YAML file can replace any table without touching the matching logic.
type Rules struct {
	// Months maps Indonesian month names and abbreviations to English
	// equivalents so the date parser recognizes them.
	Months map[string]string `yaml:"months"`

	// DeadlineKeywords tag a clause as registration-deadline flavored.
	DeadlineKeywords []string `yaml:"deadline_keywords"`

	// EventKeywords tag a clause as event-schedule flavored.
	EventKeywords []string `yaml:"event_keywords"`

	// NoisePhrases disqualify a caption line from being a title.
	NoisePhrases []string `yaml:"noise_phrases"`

	// TitleKeywords are event-type words that boost a line's title score.
	TitleKeywords []string `yaml:"title_keywords"`

	// RegistrationKeywords mark the text around a link as registration
	// related.
	RegistrationKeywords []string `yaml:"registration_keywords"`

	// ShortenerDomains are link shorteners commonly used for forms.
	ShortenerDomains []string `yaml:"shortener_domains"`

	// SocialDomains are never used as registration links.
	SocialDomains []string `yaml:"social_domains"`

	// CategoryKeywords maps a taxonomy slug to the keywords that select it.
	CategoryKeywords map[string][]string `yaml:"category_keywords"`
}

// DefaultRules returns the built-in lexicon observed across Indonesian
// competition sources.
func DefaultRules() *Rules {
	return &Rules{
		Months: map[string]string{
			"jan": "january", "januari": "january",
			"feb": "february", "februari": "february",
			"mar": "march", "maret": "march",
			"apr": "april",
			"mei": "may",
			"jun": "june", "juni": "june",
			"jul": "july", "juli": "july",
			"ags": "august", "agu": "august", "agustus": "august",
			"sep": "september",
			"okt": "october", "oktober": "october",
			"nov": "november",
			"des": "december", "desember": "december",
		},
		DeadlineKeywords: []string{
			"deadline", "pendaftaran", "batas akhir", "ditutup", "terakhir",
		},
		EventKeywords: []string{
			"pelaksanaan", "acara", "berlangsung", "tanggal acara",
			"digelar pada", "dimulai",
		},
		NoisePhrases: []string{
			"hiring", "we are looking", "open recruitment", "link di bio",
			"link in bio", "daftar sekarang", "jangan lupa", "follow",
			"yuk ikutan", "swipe", "giveaway", "promo", "diskon",
		},
		TitleKeywords: []string{
			"lomba", "kompetisi", "competition", "beasiswa", "scholarship",
			"webinar", "workshop", "seminar", "magang", "internship",
			"olimpiade", "hackathon", "pelatihan", "bootcamp", "sayembara",
			"festival", "call for paper", "essay", "esai",
		},
		RegistrationKeywords: []string{
			"daftar", "registrasi", "pendaftaran", "register", "form",
		},
		ShortenerDomains: []string{
			"bit.ly", "s.id", "t.ly", "linktr.ee", "forms.gle", "tinyurl.com",
		},
		SocialDomains: []string{
			"instagram.com", "facebook.com", "twitter.com", "x.com",
			"tiktok.com", "youtube.com",
		},
		CategoryKeywords: map[string][]string{
			"ui-ux-design":      {"ui/ux", "ui ux", "uiux", "desain antarmuka", "figma"},
			"web-development":   {"web development", "pengembangan web", "frontend", "backend", "fullstack"},
			"mobile-development": {"mobile", "android", "ios", "flutter"},
			"data-science":      {"data science", "data analysis", "analisis data", "machine learning", "big data"},
			"competitive-programming": {"competitive programming", "pemrograman kompetitif", "ctf", "capture the flag"},
			"business":          {"business plan", "bisnis", "startup", "kewirausahaan", "entrepreneur"},
			"design-graphic":    {"desain grafis", "poster", "ilustrasi", "graphic design", "logo"},
			"writing":           {"esai", "essay", "karya tulis", "kti", "artikel", "cerpen", "puisi"},
			"photography":       {"fotografi", "photography", "videografi", "video pendek", "film pendek"},
			"academic":          {"olimpiade", "cerdas cermat", "debat", "debate"},
		},
	}
}
