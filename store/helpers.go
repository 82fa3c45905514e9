package store

// SliceIterator iterates over models loaded in memory.
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

func (s *SliceIterator) Valid() bool {
	return s.idx < len(s.data)
}

// Next panics when the iterator is exhausted.
func (s *SliceIterator) Next() {
	s.mustBeValid()
	s.idx++
}

func (s *SliceIterator) Key() []byte {
	s.mustBeValid()
	return s.data[s.idx].Key
}

func (s *SliceIterator) Value() []byte {
	s.mustBeValid()
	return s.data[s.idx].Value
}

func (s *SliceIterator) Close() {
	s.data = nil
}

func (s *SliceIterator) mustBeValid() {
	if !s.Valid() {
		panic("iterator exhausted")
	}
}

// ConsumeIterator reads everything left in the iterator and closes it.
func ConsumeIterator(itr Iterator) []Model {
	defer itr.Close()

	var res []Model
	for ; itr.Valid(); itr.Next() {
		res = append(res, Model{Key: itr.Key(), Value: itr.Value()})
	}
	return res
}

// PrefixRange returns the iterator bounds that contain exactly the keys
// starting with given prefix. A nil end means there is no upper bound.
func PrefixRange(prefix []byte) (start, end []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	start = append([]byte(nil), prefix...)
	end = append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return start, end[:i+1]
		}
	}
	// All bytes are 0xff.
	return start, nil
}
