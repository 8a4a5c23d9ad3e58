package loader

import "github.com/goliatone/go-collection-cache/model"

// Processor post-processes every loaded model. It may return a replacement
// model, drop the model by returning keep=false, or abort the load with an
// error. A nil result, typed or not, drops the model.
type Processor interface {
	Process(m model.Model) (out model.Model, keep bool, err error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(m model.Model) (model.Model, bool, error)

func (f ProcessorFunc) Process(m model.Model) (model.Model, bool, error) {
	return f(m)
}

// Filter keeps the models matching pred.
func Filter(pred func(model.Model) bool) Processor {
	return ProcessorFunc(func(m model.Model) (model.Model, bool, error) {
		return m, pred(m), nil
	})
}
