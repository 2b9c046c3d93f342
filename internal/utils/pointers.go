package utils

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences v. A nil pointer gives the zero value of T.
func Value[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// MapPtr applies fn to the value behind v. Nil stays nil.
func MapPtr[T, U any](v *T, fn func(T) U) *U {
	if v == nil {
		return nil
	}
	return Ptr(fn(*v))
}
