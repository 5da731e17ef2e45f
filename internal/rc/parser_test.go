package rc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialogWithPushButton(t *testing.T) {
	src := []byte(`IDD_ABOUT DIALOGEX 0, 0, 200, 100
STYLE WS_CAPTION
CAPTION "About"
BEGIN
    PUSHBUTTON "OK",IDOK,50,70,50,14
END
`)
	f := ParseFile(src)
	d := f.Data(DefaultLanguage)
	require.True(t, d.IsValid)
	require.Len(t, d.Dialogs, 1)

	dlg := d.Dialogs[0]
	assert.Equal(t, "IDD_ABOUT", dlg.ID)
	assert.Equal(t, "About", dlg.Caption)
	assert.Contains(t, dlg.Styles, "WS_CAPTION")
	require.Len(t, dlg.Controls, 1)

	ctrl := dlg.Controls[0]
	assert.Equal(t, "PUSHBUTTON", ctrl.Type)
	assert.Equal(t, "OK", ctrl.Text)
	assert.Equal(t, "IDOK", ctrl.ID)
	assert.Equal(t, 50, ctrl.X)
	assert.Equal(t, 70, ctrl.Y)
	assert.Equal(t, 50, ctrl.W)
	assert.Equal(t, 14, ctrl.H)
}

func TestParseStringTable(t *testing.T) {
	src := []byte(`STRINGTABLE
BEGIN
    IDS_HELLO "Hello, world"
    IDS_BYE "Goodbye"
END
`)
	f := ParseFile(src)
	d := f.Data(DefaultLanguage)
	require.Len(t, d.Strings, 2)
	assert.Equal(t, "Hello, world", d.Strings["IDS_HELLO"].Text)
}

func TestParseIncludes(t *testing.T) {
	src := []byte("#include \"resource.h\"\n#include <afxres.h>\n")
	f := ParseFile(src)
	d := f.Data(DefaultLanguage)
	require.Len(t, d.Includes, 2)
}

func TestAcceleratorIsUnknown(t *testing.T) {
	src := []byte(`IDR_MAIN ACCELERATORS
BEGIN
    "^N", ID_FILE_NEW, ASCII, NOINVERT
    VK_F1, ID_HELP, VIRTKEY
END
`)
	f := ParseFile(src)
	d := f.Data(DefaultLanguage)
	require.Len(t, d.AcceleratorTables, 1)
	entries := d.AcceleratorTables[0].Entries
	require.Len(t, entries, 2)
	assert.False(t, entries[0].IsUnknown())
	assert.True(t, entries[1].IsUnknown())
}

func TestUnknownKeywordIsSkipped(t *testing.T) {
	src := []byte(`IDR_MAIN VERSIONINFO
FILEVERSION 1,0,0,0
BEGIN
    BLOCK "VarFileInfo"
    BEGIN
        VALUE "Translation", 0x409, 1200
    END
END

IDS_AFTER STRINGTABLE
BEGIN
    IDS_OK "OK"
END
`)
	f := ParseFile(src)
	d := f.Data(DefaultLanguage)
	require.Len(t, d.Strings, 1)
	assert.Equal(t, "OK", d.Strings["IDS_OK"].Text)
}
