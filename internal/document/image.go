package document

// ImageDocument tracks a binary image file without decoding its contents;
// image rendering and inspection are out of scope (§3 ImageDocument,
// Non-goals: no image rendering).
type ImageDocument struct {
	*Document
	raw []byte
}

// NewImageDocument returns an empty ImageDocument.
func NewImageDocument() *ImageDocument {
	i := &ImageDocument{}
	i.Document = NewDocument(TypeImage, i)
	return i
}

// DoLoad implements Backend: keep the raw bytes verbatim.
func (i *ImageDocument) DoLoad(_ string, data []byte) error {
	i.raw = data
	return nil
}

// DoSave implements Backend: round-trip the raw bytes verbatim.
func (i *ImageDocument) DoSave(_ string) ([]byte, error) {
	return i.raw, nil
}

// Size returns the byte length of the loaded image.
func (i *ImageDocument) Size() int { return len(i.raw) }
