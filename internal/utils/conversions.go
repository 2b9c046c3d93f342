package utils

// ToStringSlice converts a slice of string-based values, e.g. roles or permissions
func ToStringSlice[T ~string](slice []T) []string {
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		stringSlice = append(stringSlice, string(v))
	}
	return stringSlice
}
