package planner

// Activity labels of the revision and test sequence.
const (
	LabelSubjectRevision = "Subject Revision"
	LabelNCERTMCQTest    = "NCERT MCQ Test"
	LabelSectionalTest   = "Sectional Test"
	LabelMCQTest         = "MCQ Test"
)

// RevisionVariant selects the length of a revision window.
type RevisionVariant string

const (
	// RevisionShort is one revision day followed by an NCERT MCQ test.
	RevisionShort RevisionVariant = "short"
	// RevisionWeekly is several revision days, a sectional test and an
	// MCQ test.
	RevisionWeekly RevisionVariant = "weekly"
)

// weeklyRevisionDays is the number of plain revision days in a weekly
// window.
var weeklyRevisionDays = map[ProfileType]int{
	FullTime:            5,
	PartTime:            6,
	WorkingProfessional: 7,
}

// RevisionWindow is the review period following one subject's completion.
type RevisionWindow struct {
	Subject       string
	Variant       RevisionVariant
	Labels        []string
	DaysRemaining int
}

func newRevisionWindow(subject string, t ProfileType) *RevisionWindow {
	w := &RevisionWindow{Subject: subject}
	if isBig(subject) {
		w.Variant = RevisionWeekly
		for range weeklyRevisionDays[t] {
			w.Labels = append(w.Labels, LabelSubjectRevision)
		}
		w.Labels = append(w.Labels, LabelSectionalTest, LabelMCQTest)
	} else {
		w.Variant = RevisionShort
		w.Labels = []string{LabelSubjectRevision, LabelNCERTMCQTest}
	}
	w.DaysRemaining = len(w.Labels)
	return w
}

// Day returns the 1-based position of the next day in the window.
func (w *RevisionWindow) Day() int {
	return len(w.Labels) - w.DaysRemaining + 1
}

// next consumes one day and returns its activity label.
func (w *RevisionWindow) next() string {
	label := w.Labels[len(w.Labels)-w.DaysRemaining]
	w.DaysRemaining--
	return label
}

// RevisionState is the scheduler's state.
type RevisionState string

const (
	RevisionIdle   RevisionState = "IDLE"
	RevisionActive RevisionState = "ACTIVE"
)

// RevisionScheduler runs at most one revision window at a time and queues
// further completions in order.
type RevisionScheduler struct {
	active *RevisionWindow
	queue  []string
}

// Enqueue records a completed subject awaiting revision.
func (s *RevisionScheduler) Enqueue(subject string) {
	s.queue = append(s.queue, subject)
}

// State reports IDLE or ACTIVE.
func (s *RevisionScheduler) State() RevisionState {
	if s.active != nil {
		return RevisionActive
	}
	return RevisionIdle
}

// Active returns the running window, or nil.
func (s *RevisionScheduler) Active() *RevisionWindow {
	return s.active
}

// Pending reports whether a window is running or queued.
func (s *RevisionScheduler) Pending() bool {
	return s.active != nil || len(s.queue) > 0
}

// Promote starts the next queued window when idle. It runs at day end so
// the window begins the following day.
func (s *RevisionScheduler) Promote(t ProfileType) {
	if s.active != nil || len(s.queue) == 0 {
		return
	}
	s.active = newRevisionWindow(s.queue[0], t)
	s.queue = s.queue[1:]
}

// Consume spends one day of the active window and returns the subject and
// label studied. The scheduler returns to IDLE after the last day.
func (s *RevisionScheduler) Consume() (subject, label string, day, length int) {
	w := s.active
	day, length = w.Day(), len(w.Labels)
	label = w.next()
	if w.DaysRemaining == 0 {
		s.active = nil
	}
	return w.Subject, label, day, length
}
