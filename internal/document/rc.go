package document

import (
	"sort"

	"github.com/kdab-labs/knutgo/internal/rc"
	"github.com/kdab-labs/knutgo/internal/rcconvert"
)

// RcDocument owns a multi-language RcFile plus a per-language cache of the
// widget trees converted under the current Converter flags (§3 RcDocument).
type RcDocument struct {
	*Document
	raw             []byte
	File            *rc.RcFile
	CurrentLanguage string

	converter    *rcconvert.Converter
	widgetsCache map[string][]*rcconvert.Widget // language -> converted dialogs
}

// NewRcDocument returns an empty RcDocument using the default conversion
// scale/flags.
func NewRcDocument() *RcDocument {
	r := &RcDocument{
		File:            rc.NewRcFile(),
		CurrentLanguage: rc.DefaultLanguage,
		converter:       rcconvert.NewConverter(),
		widgetsCache:    make(map[string][]*rcconvert.Widget),
	}
	r.Document = NewDocument(TypeRc, r)
	return r
}

// DoLoad implements Backend: parse the full .rc source, dropping any
// previously converted widget cache. A current language the file lacks falls
// back to the default block or, when the file has none, to the first language
// id in sorted order.
func (r *RcDocument) DoLoad(_ string, data []byte) error {
	r.raw = data
	r.File = rc.ParseFile(data)
	r.widgetsCache = make(map[string][]*rcconvert.Widget)
	if _, ok := r.File.Languages[r.CurrentLanguage]; !ok {
		r.CurrentLanguage = rc.DefaultLanguage
		if _, ok := r.File.Languages[rc.DefaultLanguage]; !ok {
			if ids := r.File.LanguageIDs(); len(ids) > 0 {
				sort.Strings(ids)
				r.CurrentLanguage = ids[0]
			}
		}
	}
	return nil
}

// DoSave implements Backend: the RC source is round-tripped verbatim, since
// this engine never regenerates `.rc` syntax, only consumes it.
func (r *RcDocument) DoSave(_ string) ([]byte, error) {
	return r.raw, nil
}

// SetCurrentLanguage switches the active LANGUAGE block, invalidating
// nothing (each language's RcData and converted widgets are cached
// independently per §4.G "RcDocument per-language cache invalidation").
func (r *RcDocument) SetCurrentLanguage(language string) {
	r.CurrentLanguage = language
}

// Data returns the RcData for the current language.
func (r *RcDocument) Data() *rc.RcData {
	return r.File.Data(r.CurrentLanguage)
}

// ConvertedDialogs returns the Qt widget trees for every dialog in the
// current language, converting and caching them on first access.
func (r *RcDocument) ConvertedDialogs() []*rcconvert.Widget {
	if cached, ok := r.widgetsCache[r.CurrentLanguage]; ok {
		return cached
	}
	data := r.Data()
	widgets := make([]*rcconvert.Widget, 0, len(data.Dialogs))
	for _, d := range data.Dialogs {
		w := r.converter.ConvertDialog(d)
		widgets = append(widgets, &w)
	}
	r.widgetsCache[r.CurrentLanguage] = widgets
	return widgets
}
