package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Image writer: heap snapshot serialization
// ---------------------------------------------------------------------------

// ImageMagic identifies a babyvm heap image.
const ImageMagic = "BVMI"

// ImageVersion is the current image format version.
const ImageVersion = 1

// imageFile is the on-disk snapshot of a VM. Objects are encoded in
// ownership-list order and referenced by index, which preserves arbitrary
// graphs (including cycles) and restores the list in the same order.
type imageFile struct {
	Magic     string        `cbor:"magic"`
	Version   uint32        `cbor:"version"`
	Objects   []imageObject `cbor:"objects"`
	Roots     []int         `cbor:"roots"`
	Threshold int           `cbor:"threshold"`
}

// imageObject is one serialized heap object. Head and Tail are indices
// into the Objects slice, or -1 for a nil reference.
type imageObject struct {
	Kind  uint8 `cbor:"kind"`
	Value int   `cbor:"value"`
	Head  int   `cbor:"head"`
	Tail  int   `cbor:"tail"`
}

// cborEncMode uses canonical options for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// WriteImage serializes the VM's entire heap graph, root stack, and
// collection threshold to w.
func (vm *VM) WriteImage(w io.Writer) error {
	index := make(map[*Object]int, vm.liveCount)
	i := 0
	vm.eachObject(func(obj *Object) {
		index[obj] = i
		i++
	})

	img := imageFile{
		Magic:     ImageMagic,
		Version:   ImageVersion,
		Objects:   make([]imageObject, 0, vm.liveCount),
		Roots:     make([]int, 0, len(vm.roots)),
		Threshold: vm.threshold,
	}

	vm.eachObject(func(obj *Object) {
		img.Objects = append(img.Objects, imageObject{
			Kind:  uint8(obj.kind),
			Value: obj.Value,
			Head:  refIndex(index, obj.Head),
			Tail:  refIndex(index, obj.Tail),
		})
	})

	// Push accepts nil references, so roots go through refIndex too;
	// a nil root encodes as -1 rather than aliasing object 0.
	for _, root := range vm.roots {
		img.Roots = append(img.Roots, refIndex(index, root))
	}

	data, err := cborEncMode.Marshal(&img)
	if err != nil {
		return fmt.Errorf("vm: encode image: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("vm: write image: %w", err)
	}
	return nil
}

// SaveImage writes the heap image to the named file.
func (vm *VM) SaveImage(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vm: create image %q: %w", path, err)
	}
	if err := vm.WriteImage(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// refIndex maps a reference to its list index, or -1 for nil.
func refIndex(index map[*Object]int, obj *Object) int {
	if obj == nil {
		return -1
	}
	return index[obj]
}
