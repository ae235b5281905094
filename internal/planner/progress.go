package planner

// SubjectProgress tracks how far one main subject has been covered.
type SubjectProgress struct {
	Subject            string `json:"subject"`
	SubSubject         string `json:"sub_subject"`
	SubIndex           int    `json:"sub_index"`
	SubtopicsCompleted int    `json:"subtopics_completed"`
	SubtopicsTotal     int    `json:"subtopics_total"`
	Completed          bool   `json:"completed"`
	Priority           Tier   `json:"priority"`

	subs []*subSubject
}

func newProgress(subject string, subs []*subSubject, priority Tier) *SubjectProgress {
	p := &SubjectProgress{
		Subject:  subject,
		Priority: priority,
		subs:     subs,
	}
	if len(subs) == 0 {
		p.Completed = true
		return p
	}
	p.SubSubject = subs[0].name
	p.SubtopicsTotal = len(subs[0].subtopics)
	return p
}

func (p *SubjectProgress) current() *subSubject {
	if p.Completed {
		return nil
	}
	return p.subs[p.SubIndex]
}

// remaining is the number of unscheduled subtopics in the current
// sub-subject.
func (p *SubjectProgress) remaining() int {
	if p.Completed {
		return 0
	}
	return p.SubtopicsTotal - p.SubtopicsCompleted
}

// take schedules up to n subtopics of the current sub-subject and returns
// them. It never moves past the sub-subject's last subtopic.
func (p *SubjectProgress) take(n int) []subtopic {
	n = min(n, p.remaining())
	if n <= 0 {
		return nil
	}
	sub := p.current()
	out := sub.subtopics[p.SubtopicsCompleted : p.SubtopicsCompleted+n]
	p.SubtopicsCompleted += n
	return out
}

// advance moves to the next sub-subject. It returns false and marks the
// subject completed when none is left.
func (p *SubjectProgress) advance() bool {
	if p.Completed {
		return false
	}
	if p.SubIndex+1 >= len(p.subs) {
		p.Completed = true
		return false
	}
	p.SubIndex++
	p.SubSubject = p.subs[p.SubIndex].name
	p.SubtopicsCompleted = 0
	p.SubtopicsTotal = len(p.subs[p.SubIndex].subtopics)
	return true
}
