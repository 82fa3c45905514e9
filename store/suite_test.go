package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// storeSuite runs the same checks against every KVStore implementation. Only
// the constructor differs between btree_test.go and leveldb_test.go.
type storeSuite struct {
	makeBase func(t testing.TB) (base KVStore, cleanup func())
}

func (s storeSuite) Run(t *testing.T) {
	Convey("Given an empty store", t, func() {
		base, cleanup := s.makeBase(t)
		Reset(cleanup)

		Convey("a missing key reads as nil", func() {
			assertGetHas(base, []byte("french"), nil, false)
		})

		Convey("written values can be read back", func() {
			k, v := []byte("french"), []byte("fry")
			So(base.Set(k, v), ShouldBeNil)
			assertGetHas(base, k, v, true)

			Convey("and overwritten", func() {
				So(base.Set(k, []byte("toast")), ShouldBeNil)
				assertGetHas(base, k, []byte("toast"), true)
			})

			Convey("and deleted", func() {
				So(base.Delete(k), ShouldBeNil)
				assertGetHas(base, k, nil, false)
				So(base.Delete(k), ShouldBeNil)
			})
		})

		Convey("an empty value is distinct from a missing one", func() {
			So(base.Set([]byte("empty"), []byte{}), ShouldBeNil)
			got, err := base.Get([]byte("empty"))
			So(err, ShouldBeNil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("stored values are not aliased with the caller buffers", func() {
			k, v := []byte("key"), []byte("value")
			So(base.Set(k, v), ShouldBeNil)
			v[0] = 'X'
			assertGetHas(base, k, []byte("value"), true)
		})

		Convey("iteration returns keys in order within bounds", func() {
			expect := sortModels(randModels(50, 8, 40))
			for _, m := range expect {
				So(base.Set(m.Key, m.Value), ShouldBeNil)
			}
			// Deleting missing keys changes nothing.
			for _, m := range randModels(20, 8, 40) {
				So(base.Delete(m.Key), ShouldBeNil)
			}

			queries := []rangeQuery{
				{nil, nil, expect},
				{expect[10].Key, nil, expect[10:]},
				{nil, expect[42].Key, expect[:42]},
				{expect[17].Key, expect[28].Key, expect[17:28]},
				{expect[17].Key, expect[17].Key, nil},
			}
			for _, q := range queries {
				q.verify(base)
			}
		})

		Convey("prefix iteration only returns keys with the prefix", func() {
			for _, k := range []string{"a/1", "a/2", "a0", "b/1", "a"} {
				So(base.Set([]byte(k), []byte(k)), ShouldBeNil)
			}
			start, end := PrefixRange([]byte("a/"))
			it, err := base.Iterator(start, end)
			So(err, ShouldBeNil)
			got := ConsumeIterator(it)
			So(got, ShouldResemble, []Model{
				Pair([]byte("a/1"), []byte("a/1")),
				Pair([]byte("a/2"), []byte("a/2")),
			})
		})

		Convey("the store can be modified while iterating", func() {
			So(base.Set([]byte("a"), []byte("A")), ShouldBeNil)
			So(base.Set([]byte("b"), []byte("B")), ShouldBeNil)
			it, err := base.Iterator(nil, nil)
			So(err, ShouldBeNil)
			defer it.Close()
			for ; it.Valid(); it.Next() {
				So(base.Delete(it.Key()), ShouldBeNil)
			}
			got, err := base.Get([]byte("b"))
			So(err, ShouldBeNil)
			So(got, ShouldBeNil)
		})
	})
}

func assertGetHas(kv ReadOnlyKVStore, key, val []byte, has bool) {
	got, err := kv.Get(key)
	So(err, ShouldBeNil)
	if val == nil {
		So(got, ShouldBeNil)
	} else {
		So(got, ShouldResemble, val)
	}
	exists, err := kv.Has(key)
	So(err, ShouldBeNil)
	So(exists, ShouldEqual, has)
}

// rangeQuery checks the results of iteration
type rangeQuery struct {
	start    []byte
	end      []byte
	expected []Model
}

func (q rangeQuery) verify(kv ReadOnlyKVStore) {
	iter, err := kv.Iterator(q.start, q.end)
	So(err, ShouldBeNil)
	defer iter.Close()

	for i := 0; i < len(q.expected); i++ {
		So(iter.Valid(), ShouldBeTrue)
		So(bytes.Equal(q.expected[i].Key, iter.Key()), ShouldBeTrue)
		So(iter.Value(), ShouldResemble, q.expected[i].Value)
		iter.Next()
	}
	So(iter.Valid(), ShouldBeFalse)
}

//nolint
func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}

// randModels produces a random set of models
func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := 0; i < count; i++ {
		models[i].Key = randBytes(keySize)
		models[i].Value = randBytes(valueSize)
	}
	return models
}

// sortModels returns a copy of the models sorted by key
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}
