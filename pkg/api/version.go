package api

import (
	"strconv"
	"strings"
)

// CompareVersions orders two version strings the way package versions sort:
// numeric release components first, then a release sorts above any
// prerelease of the same numbers, then prerelease labels compare
// identifier by identifier. Build metadata is ignored. The result is -1, 0
// or +1.
func CompareVersions(a, b string) int {
	a, b = NormalizeVersion(a), NormalizeVersion(b)
	relA, preA, _ := strings.Cut(a, "-")
	relB, preB, _ := strings.Cut(b, "-")

	pa, pb := strings.Split(relA, "."), strings.Split(relB, ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		if c := compareNumeric(component(pa, i), component(pb, i)); c != 0 {
			return c
		}
	}

	switch {
	case preA == "" && preB == "":
		return 0
	case preA == "":
		return 1
	case preB == "":
		return -1
	}

	ia, ib := strings.Split(preA, "."), strings.Split(preB, ".")
	for i := 0; i < len(ia) && i < len(ib); i++ {
		if c := comparePrereleaseIdent(ia[i], ib[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(ia), len(ib))
}

func component(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}

func compareNumeric(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return compareInt(na, nb)
}

func comparePrereleaseIdent(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return compareInt(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
