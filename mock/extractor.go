package mock

import "github.com/fwojciec/harvest"

var _ harvest.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of harvest.Extractor.
type Extractor struct {
	ExtractFn    func(name string) (any, error)
	ExtractAllFn func() (harvest.Record, error)
}

func (e *Extractor) Extract(name string) (any, error) {
	return e.ExtractFn(name)
}

func (e *Extractor) ExtractAll() (harvest.Record, error) {
	return e.ExtractAllFn()
}

var _ harvest.Converter = (*Converter)(nil)

// Converter is a mock implementation of harvest.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
