package types

// ProfileSummary is the projected view returned by the admin profile listing.
type ProfileSummary struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Profession string `json:"profession"`
	Location   string `json:"location"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// ResumeSummary is the projected view returned by the resume listing. Counts
// are derived purely from document structure.
type ResumeSummary struct {
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	Title             string `json:"title"`
	Projects          int    `json:"projects"`
	TechnicalSkills   int    `json:"technicalSkills"`
	SoftSkills        int    `json:"softSkills"`
	ExperienceEntries int    `json:"experienceEntries"`
	EducationEntries  int    `json:"educationEntries"`
	IsComplete        bool   `json:"isComplete"`
	OCRProcessed      bool   `json:"ocrProcessed"`
	CreatedAt         string `json:"createdAt,omitempty"`
	UpdatedAt         string `json:"updatedAt,omitempty"`
}
