package shapes

import "strconv"

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Label returns the i-th sequential endpoint label: A..Z for the first 26,
// then A1..Z1, A2..Z2 and so on.
func Label(i int) string {
	l := string(letters[i%len(letters)])
	if n := i / len(letters); n > 0 {
		return l + strconv.Itoa(n)
	}
	return l
}

// Alphabet returns the first n sequential endpoint labels.
func Alphabet(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = Label(i)
	}
	return out
}
