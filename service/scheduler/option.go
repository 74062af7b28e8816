package scheduler

type Option func(s *Service)

// WithTimeSlice sets the interval timer ticks granted per dispatch.
func WithTimeSlice(ticks uint32) Option {
	return func(s *Service) {
		s.timeSlice = ticks
	}
}

// WithAging raises the priority of every waiting process on each dispatch.
func WithAging(aging bool) Option {
	return func(s *Service) {
		s.aging = aging
	}
}
