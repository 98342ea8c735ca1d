package nn

import (
	"github.com/pkg/errors"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"

	"github.com/vamsi1609/pytorch-deep-learning/tensor"
)

// EmbeddingBag averages the embeddings of each bag of token ids. Bags are
// delimited by offsets into the flattened id sequence; an empty bag yields a
// zero vector.
type EmbeddingBag struct {
	Weight *tensor.Param
}

func NewEmbeddingBag(name string, numEmbeddings, dim int) *EmbeddingBag {
	return &EmbeddingBag{Weight: tensor.New(name+".weight", numEmbeddings, dim)}
}

func (e *EmbeddingBag) NumEmbeddings() int { return e.Weight.Shape[0] }
func (e *EmbeddingBag) Dim() int           { return e.Weight.Shape[1] }

func (e *EmbeddingBag) Parameters() []*tensor.Param {
	return []*tensor.Param{e.Weight}
}

// bag returns the [start, end) range of bag b.
func bag(text, offsets []int, b int) (int, int) {
	end := len(text)
	if b+1 < len(offsets) {
		end = offsets[b+1]
	}
	return offsets[b], end
}

func (e *EmbeddingBag) check(text, offsets []int) error {
	for b, off := range offsets {
		if off < 0 || off > len(text) || (b > 0 && off < offsets[b-1]) {
			return errors.Errorf("nn: invalid offset %d at bag %d", off, b)
		}
	}
	for _, id := range text {
		if id < 0 || id >= e.NumEmbeddings() {
			return errors.Errorf("nn: token id %d outside [0, %d)", id, e.NumEmbeddings())
		}
	}
	return nil
}

// Apply returns the bag means flattened as [len(offsets), Dim()]. The rows
// are gathered with an anyvec mapper and averaged by a constant
// [bags, tokens] matrix, so the weight gradient lands on looked up rows only.
func (e *EmbeddingBag) Apply(text, offsets []int) (anydiff.Res, error) {
	if err := e.check(text, offsets); err != nil {
		return nil, err
	}
	c := tensor.Creator
	dim, bags := e.Dim(), len(offsets)
	if len(text) == 0 {
		return anydiff.NewConst(c.MakeVector(bags * dim)), nil
	}

	table := make([]int, len(text)*dim)
	for i, id := range text {
		for j := 0; j < dim; j++ {
			table[i*dim+j] = id*dim + j
		}
	}
	rows := newGather(e.Weight.Var, c.MakeMapper(e.Weight.Size(), table))

	mean := make([]float32, bags*len(text))
	for b := range offsets {
		start, end := bag(text, offsets, b)
		for i := start; i < end; i++ {
			mean[b*len(text)+i] = 1 / float32(end-start)
		}
	}
	avg := &anydiff.Matrix{Data: anydiff.NewConst(tensor.Vector(mean)), Rows: bags, Cols: len(text)}
	looked := &anydiff.Matrix{Data: rows, Rows: len(text), Cols: dim}
	return anydiff.MatMul(false, false, avg, looked).Data, nil
}

// gather selects entries of a variable through a mapper.
type gather struct {
	v      *anydiff.Var
	mapper anyvec.Mapper
	out    anyvec.Vector
}

func newGather(v *anydiff.Var, m anyvec.Mapper) *gather {
	out := v.Vector.Creator().MakeVector(m.OutSize())
	m.Map(v.Vector, out)
	return &gather{v: v, mapper: m, out: out}
}

func (g *gather) Output() anyvec.Vector {
	return g.out
}

func (g *gather) Vars() anydiff.VarSet {
	return g.v.Vars()
}

func (g *gather) Propagate(u anyvec.Vector, grad anydiff.Grad) {
	if dst, ok := grad[g.v]; ok {
		g.mapper.MapTranspose(u, dst)
	}
}
