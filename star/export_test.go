package star

// Export internals for testing

var SplitLine = splitLine
var Format = format

func WordStrings(s string) ([]string, error) {
	words, err := splitLine([]byte(s), nil)
	if err != nil {
		return nil, err
	}
	var ret []string
	for _, w := range words {
		ret = append(ret, string(w.b))
	}
	return ret, nil
}
