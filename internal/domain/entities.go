package domain

import "sort"

// Record is a single post: its raw text and the author that wrote it.
type Record struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// Batch is an ordered sequence of records for a fixed set of authors.
type Batch []Record

// Authors returns the distinct authors of the batch in first-seen order.
func (b Batch) Authors() []string {
	seen := make(map[string]struct{})
	var authors []string
	for _, r := range b {
		if _, ok := seen[r.Author]; ok {
			continue
		}
		seen[r.Author] = struct{}{}
		authors = append(authors, r.Author)
	}
	return authors
}

// Texts returns the record texts in batch order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b))
	for i, r := range b {
		texts[i] = r.Text
	}
	return texts
}

// Centroid is the mean embedding of every in-vocabulary token an author wrote.
// A nil Vector means the author contributed no in-vocabulary tokens.
type Centroid struct {
	Author string
	Vector []float64
	Posts  int
	Tokens int // in-vocabulary tokens averaged into Vector
}

// Defined reports whether the centroid has a vector.
func (c Centroid) Defined() bool {
	return c.Vector != nil
}

// AuthorCentroids maps author identifier to its centroid.
type AuthorCentroids map[string]Centroid

// Authors returns the authors in lexical order.
func (c AuthorCentroids) Authors() []string {
	authors := make([]string, 0, len(c))
	for a := range c {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	return authors
}

// Undefined returns the authors without a centroid vector, in lexical order.
func (c AuthorCentroids) Undefined() []string {
	var authors []string
	for _, a := range c.Authors() {
		if !c[a].Defined() {
			authors = append(authors, a)
		}
	}
	return authors
}

// Neighbor is one entry of a similarity ranking.
type Neighbor struct {
	Author   string  `json:"author"`
	Distance float64 `json:"distance"`
}

// Ranking lists neighbors by non-decreasing distance.
type Ranking []Neighbor

// Top returns at most k neighbors. k <= 0 returns the full ranking.
func (r Ranking) Top(k int) Ranking {
	if k <= 0 || k >= len(r) {
		return r
	}
	return r[:k]
}
