package stack

type Stack[T any] struct{ underlying []T }

func New[T any](cap uint) *Stack[T] {
	return &Stack[T]{underlying: make([]T, 0, cap)}
}

func (s *Stack[T]) Len() uint {
	return uint(len(s.underlying))
}

// Data returns a copy of the stack from bottom to top.
func (s *Stack[T]) Data() []T {
	out := make([]T, len(s.underlying))
	copy(out, s.underlying)
	return out
}

func (s *Stack[T]) Push(data T) {
	s.underlying = append(s.underlying, data)
}

// Pop removes the top element. ok is false on empty stack.
func (s *Stack[T]) Pop() (data T, ok bool) {
	if s.Len() == 0 {
		return data, false
	}

	data = s.underlying[s.Len()-1]
	s.underlying = s.underlying[:s.Len()-1]

	return data, true
}

func (s *Stack[T]) Peek() (data T, ok bool) {
	if s.Len() == 0 {
		return data, false
	}

	return s.underlying[s.Len()-1], true
}
