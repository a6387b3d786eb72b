package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Image reader: heap snapshot restoration
// ---------------------------------------------------------------------------

// Image format errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic number: expected BVMI")
	ErrVersionMismatch    = errors.New("image version mismatch")
	ErrCorruptImage       = errors.New("corrupt image data")
	ErrInvalidObjectIndex = errors.New("invalid object index")
)

// ReadImage reconstructs a VM from a heap image. The restored VM has the
// same reachability graph, root order, live count, and threshold as the
// VM that wrote the image. rootCapacity bounds the restored root stack
// exactly as in NewVM; it must be at least the image's root count.
func ReadImage(r io.Reader, rootCapacity int) (*VM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vm: read image: %w", err)
	}

	var img imageFile
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if img.Magic != ImageMagic {
		return nil, ErrInvalidMagic
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("%w: image has version %d, runtime supports %d",
			ErrVersionMismatch, img.Version, ImageVersion)
	}

	vm := NewVM(rootCapacity)
	if len(img.Roots) > cap(vm.roots) {
		return nil, fmt.Errorf("%w: image has %d roots, capacity is %d",
			ErrCorruptImage, len(img.Roots), cap(vm.roots))
	}

	// Pass 1: materialize objects so indices can resolve to references.
	objects := make([]*Object, len(img.Objects))
	for i, rec := range img.Objects {
		switch Kind(rec.Kind) {
		case KindScalar:
			objects[i] = &Object{kind: KindScalar, Value: rec.Value}
		case KindPair:
			objects[i] = &Object{kind: KindPair}
		default:
			return nil, fmt.Errorf("%w: object %d has kind %d", ErrCorruptImage, i, rec.Kind)
		}
	}

	// Pass 2: relink pair fields and rebuild the ownership list in the
	// serialized order.
	for i, rec := range img.Objects {
		obj := objects[i]
		if obj.kind == KindPair {
			if obj.Head, err = resolveRef(objects, rec.Head); err != nil {
				return nil, err
			}
			if obj.Tail, err = resolveRef(objects, rec.Tail); err != nil {
				return nil, err
			}
		}
		if i+1 < len(objects) {
			obj.next = objects[i+1]
		}
	}
	if len(objects) > 0 {
		vm.firstObject = objects[0]
	}
	vm.liveCount = len(objects)
	vm.threshold = img.Threshold

	for _, ri := range img.Roots {
		root, err := resolveRef(objects, ri)
		if err != nil {
			return nil, err
		}
		vm.roots = append(vm.roots, root)
	}

	return vm, nil
}

// LoadImage reads a heap image from the named file.
func LoadImage(path string, rootCapacity int) (*VM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vm: open image %q: %w", path, err)
	}
	defer f.Close()
	return ReadImage(f, rootCapacity)
}

// resolveRef maps a serialized index to a reference; -1 is nil.
func resolveRef(objects []*Object, i int) (*Object, error) {
	if i == -1 {
		return nil, nil
	}
	if i < 0 || i >= len(objects) {
		return nil, fmt.Errorf("%w: reference index %d of %d objects",
			ErrInvalidObjectIndex, i, len(objects))
	}
	return objects[i], nil
}
