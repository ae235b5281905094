package planner

import "github.com/p-n-ai/pai-planner/internal/reference"

const defaultSources = "Standard reference books and class notes"

var builtinSubjectSources = map[string]string{
	"HISTORY":                "NCERT History (Class VI-XII), Spectrum Modern India",
	"GEOGRAPHY":              "NCERT Geography (Class VI-XII), G C Leong, Oxford Atlas",
	"POLITY":                 "NCERT Political Science, M Laxmikanth Indian Polity",
	"ECONOMY":                "NCERT Economics, Ramesh Singh Indian Economy, Economic Survey",
	"ENVIRONMENT":            "NCERT Biology (Class XII, Unit X), Shankar IAS Environment",
	"SCIENCE AND TECHNOLOGY": "NCERT Science (Class VI-X), The Hindu S&T page",
	"ETHICS":                 "Lexicon for Ethics, ARC 2nd Report (Ethics in Governance)",
	"CSAT":                   "Previous year CSAT papers, R S Aggarwal Quantitative Aptitude",
	"ART AND CULTURE":        "NCERT Fine Arts (Class XI), Nitin Singhania Indian Art and Culture",
}

const (
	currentAffairsSources = "The Hindu / Indian Express, PIB releases, monthly compilation"
	answerWritingSources  = "Previous year mains papers, model answers"
	optionalSources       = "Optional subject standard texts and previous year papers"
)

// sourceTable resolves recommended reading for study and revision entries.
// Reference data overrides the built-in lines.
type sourceTable struct {
	bySub  map[subKey]string
	byMain map[string]string
}

func newSourceTable(sources []reference.Source) *sourceTable {
	t := &sourceTable{
		bySub:  make(map[subKey]string),
		byMain: make(map[string]string, len(builtinSubjectSources)),
	}
	for main, text := range builtinSubjectSources {
		t.byMain[main] = text
	}
	for _, s := range sources {
		main := reference.Key(s.MainSubject)
		if s.SubSubject == "" {
			t.byMain[main] = s.Text
			continue
		}
		t.bySub[subKey{main, reference.Key(s.SubSubject)}] = s.Text
	}
	return t
}

// study returns sources for a main subject / sub-subject pair, falling back
// to the main subject line.
func (t *sourceTable) study(main, sub string) string {
	if s, ok := t.bySub[subKey{main, reference.Key(sub)}]; ok {
		return s
	}
	return t.revision(main)
}

// revision returns the per-main-subject sources used by revision entries.
func (t *sourceTable) revision(main string) string {
	if s, ok := t.byMain[main]; ok {
		return s
	}
	return defaultSources
}
