package reference

// CatalogEntry is one sub-subject row of the subject catalog.
type CatalogEntry struct {
	MainSubject      string  `yaml:"main_subject"`
	SubSubject       string  `yaml:"sub_subject"`
	HoursPerSubtopic float64 `yaml:"hours_per_subtopic"`
	SubtopicCount    int     `yaml:"subtopic_count"`
	MaxHours         float64 `yaml:"max_hours"`
	Pace             Pace    `yaml:"pace"`
}

// Pace is the number of subtopics per day the catalog assumes for each
// aspirant profile type.
type Pace struct {
	FullTime            int `yaml:"full_time"`
	PartTime            int `yaml:"part_time"`
	WorkingProfessional int `yaml:"working_professional"`
}

// SyllabusEntry is one topic of a sub-subject with its ordered subtopics.
type SyllabusEntry struct {
	MainSubject string
	SubSubject  string
	Topic       string
	Subtopics   []string
}

// Source is a recommended-reading line. An empty SubSubject applies to the
// whole main subject and is also used for revision entries.
type Source struct {
	MainSubject string `yaml:"main_subject"`
	SubSubject  string `yaml:"sub_subject"`
	Text        string `yaml:"text"`
}

// Data is the complete read-only reference dataset.
type Data struct {
	Catalog  []CatalogEntry
	Syllabus []SyllabusEntry
	Sources  []Source
}

// catalogFile is the on-disk shape of a *.catalog.yaml file.
type catalogFile struct {
	Subjects []CatalogEntry `yaml:"subjects"`
}

// syllabusFile is the on-disk shape of a *.syllabus.yaml file: one main
// subject, its sub-subjects in study order, and their topics.
type syllabusFile struct {
	MainSubject string `yaml:"main_subject"`
	SubSubjects []struct {
		Name   string `yaml:"name"`
		Topics []struct {
			Name      string   `yaml:"name"`
			Subtopics []string `yaml:"subtopics"`
		} `yaml:"topics"`
	} `yaml:"sub_subjects"`
}

// sourcesFile is the on-disk shape of a *.sources.yaml file.
type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}
