package features

import (
	"fmt"
	"math"
)

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isConsonant(c byte) bool {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	if c < 'a' || c > 'z' {
		return false
	}
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	}
	return true
}

// longestRun returns the longest run of bytes satisfying pred and where it starts.
func longestRun(s string, pred func(byte) bool) (start, length int) {
	cur := 0
	for i := 0; i < len(s); i++ {
		if !pred(s[i]) {
			cur = 0
			continue
		}
		cur++
		if cur > length {
			length, start = cur, i-cur+1
		}
	}
	return start, length
}

func longOpaqueToken(minLen int) func(*Input) Result {
	return func(in *Input) Result {
		start, n := longestRun(in.Raw, isAlnum)
		if n < minLen {
			return noMatch()
		}
		return match(fmt.Sprintf("%d-character token at offset %d", n, start))
	}
}

func consonantCluster(minLen int) func(*Input) Result {
	return func(in *Input) Result {
		start, n := longestRun(in.Raw, isConsonant)
		if n < minLen {
			return noMatch()
		}
		return match(fmt.Sprintf("%q", in.Raw[start:start+n]))
	}
}

// Entropy is the Shannon entropy of s in bits per byte.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	total := float64(len(s))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

// highEntropy looks at the host labels in front of the public suffix; random
// looking labels are what generated phishing hosts have in common.
func highEntropy(minLabel int, baseline, high float64) func(*Input) Result {
	return func(in *Input) Result {
		if in.IsIP {
			return noMatch()
		}
		labels := append(append([]string{}, in.Subdomain...), in.DomainLabel())
		best, bestLabel := 0.0, ""
		for _, l := range labels {
			if len(l) < minLabel {
				continue
			}
			if h := Entropy(l); h > best {
				best, bestLabel = h, l
			}
		}
		switch {
		case best >= high:
			return match(fmt.Sprintf("%q %.2f bits/char", bestLabel, best))
		case best >= baseline:
			return Result{Detail: fmt.Sprintf("elevated %.2f bits/char", best)}
		}
		return noMatch()
	}
}
