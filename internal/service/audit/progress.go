package audit

// Progress follows a run. Start is called once with the number of
// entries, Done once per processed entry.
type Progress interface {
	Start(total int)
	Done()
}

type noProgress struct{}

func (noProgress) Start(int) {}
func (noProgress) Done()     {}

// WithProgress sets the run progress observer.
func WithProgress(p Progress) Option {
	return func(s *Service) {
		s.progress = p
	}
}
