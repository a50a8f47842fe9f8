package callbacks

import (
	"bufio"
	"fmt"
	"iter"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rivo/uniseg"
)

// WfTask is one UTF-8 encoded paragraph of text to count word frequencies
// in.
type WfTask []byte

// WfResult is a word-frequency count for one paragraph. The fabric's gob
// codec transmits it directly since map[string]int is gob-encodable.
type WfResult map[string]int

// WfTasks globs the given file patterns (supporting ?, *, **, [], {}) and
// emits one WfTask per paragraph found across all matched files. Glob or
// read errors for an individual pattern or file are reported to out and
// otherwise skipped; only a totally empty glob list is fatal.
func WfTasks(globs []string, out *os.File) (iter.Seq[WfTask], error) {
	if len(globs) == 0 {
		return nil, fmt.Errorf("callbacks: at least one file glob is required")
	}

	return func(yield func(WfTask) bool) {
		for _, glob := range globs {
			matches, err := doublestar.FilepathGlob(glob)
			if err != nil {
				fmt.Fprintf(out, "skipping bad file glob pattern: %s\n", glob)
				continue
			}
			if len(matches) == 0 {
				fmt.Fprintf(out, "no matches for file glob pattern: %s\n", glob)
				continue
			}
			for _, path := range matches {
				if !partitionFile(path, out, yield) {
					return
				}
			}
		}
	}, nil
}

func partitionFile(path string, out *os.File, yield func(WfTask) bool) bool {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		fmt.Fprintf(out, "skipping unopenable file %s: %v\n", path, err)
		return true
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var paragraph []byte
	eop := false
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			if eop {
				continue
			}
			eop = true
			if !yield(WfTask(paragraph)) {
				return false
			}
			paragraph = nil
		} else {
			eop = false
			paragraph = append(paragraph, line...)
			paragraph = append(paragraph, '\n')
		}
	}
	if len(paragraph) != 0 {
		if !yield(WfTask(paragraph)) {
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(out, "error reading file %s: %v\n", path, err)
	}
	return true
}

// WfCompute counts word frequencies within a single paragraph, normalizing
// each word to lowercase and skipping runs of punctuation, space, or
// control characters.
func WfCompute(task WfTask) (WfResult, error) {
	result := make(WfResult)
	p := []byte(task)
	state := -1
	var word []byte
	for len(p) > 0 {
		word, p, state = uniseg.FirstWord(p, state)
		if ignoreWord(word) {
			continue
		}
		result[strings.ToLower(string(word))]++
	}
	return result, nil
}

func ignoreWord(w []byte) bool {
	for len(w) > 0 {
		r, size := utf8.DecodeRune(w)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsControl(r) {
			w = w[size:]
			continue
		}
		return false
	}
	return true
}

// WfAccumulate folds a stream of per-paragraph WfResult counts into one
// corpus-wide frequency table.
func WfAccumulate(results iter.Seq[WfResult]) WfResult {
	total := make(WfResult)
	for r := range results {
		for word, count := range r {
			total[word] += count
		}
	}
	return total
}

// WfReport renders a frequency table sorted descendingly by count, then
// ascendingly by word, matching the fixed-width column layout a terminal
// consumer expects.
func WfReport(freq WfResult, out *os.File) {
	type entry struct {
		word  string
		count int
		width int
	}
	var entries []entry
	maxWidth := 0
	for word, count := range freq {
		width := uniseg.StringWidth(word)
		maxWidth = max(maxWidth, width)
		entries = append(entries, entry{word, count, width})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].word < entries[j].word
	})

	maxCountWidth := 0
	if len(entries) != 0 {
		maxCountWidth = 1 + int(math.Log10(float64(entries[0].count)))
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s%*s: %*d\n", e.word, maxWidth-e.width+1, " ", maxCountWidth, e.count)
	}
}
