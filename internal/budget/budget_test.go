package budget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEditorStartsFromSaved(t *testing.T) {
	e := NewEditor(2000)
	require.Equal(t, "2000", e.Text)
	require.EqualValues(t, 2000, e.Slider)
	require.True(t, e.CanSave())
}

func TestSetTextBelowMinimumBlocksSave(t *testing.T) {
	e := NewEditor(2000)

	e.SetText("150")
	require.Equal(t, "150", e.Text) // kept visible while typing
	require.EqualValues(t, 500, e.Slider)
	require.Equal(t, "Minimum budget is $500", e.Err)
	require.False(t, e.CanSave())

	_, err := e.Value()
	require.Error(t, err)
}

func TestSetTextAboveMaximumBlocksSave(t *testing.T) {
	e := NewEditor(2000)

	e.SetText("99999")
	require.Equal(t, "99999", e.Text)
	require.EqualValues(t, 5000, e.Slider)
	require.Equal(t, "Maximum budget is $5000", e.Err)
	require.False(t, e.CanSave())
}

func TestSetTextInRangeSaves(t *testing.T) {
	e := NewEditor(2000)

	e.SetText("2500")
	require.Empty(t, e.Err)
	require.EqualValues(t, 2500, e.Slider)
	require.True(t, e.CanSave())

	value, err := e.Value()
	require.NoError(t, err)
	require.EqualValues(t, 2500, value)
}

func TestSetTextStripsNonDigits(t *testing.T) {
	e := NewEditor(2000)

	e.SetText("$2,500")
	require.Equal(t, "2500", e.Text)
	require.True(t, e.CanSave())
}

func TestSetTextEmptyClearsError(t *testing.T) {
	e := NewEditor(2000)
	e.SetText("150")
	require.NotEmpty(t, e.Err)

	e.SetText("")
	require.Empty(t, e.Text)
	require.Empty(t, e.Err)
	require.EqualValues(t, 500, e.Slider)
	require.False(t, e.CanSave())
}

func TestSetSliderSnapsAndSyncsText(t *testing.T) {
	e := NewEditor(2000)

	e.SetSlider(2349)
	require.EqualValues(t, 2300, e.Slider)
	require.Equal(t, "2300", e.Text)

	e.SetSlider(2350)
	require.EqualValues(t, 2400, e.Slider)
}

func TestSetSliderClampsToRange(t *testing.T) {
	e := NewEditor(2000)

	e.SetSlider(100)
	require.EqualValues(t, 500, e.Slider)

	e.SetSlider(9000)
	require.EqualValues(t, 5000, e.Slider)
}

func TestSliderEditClearsTextError(t *testing.T) {
	e := NewEditor(2000)
	e.SetText("150")
	require.NotEmpty(t, e.Err)

	e.SetSlider(1200)
	require.Empty(t, e.Err)
	require.True(t, e.CanSave())
}

func TestStep(t *testing.T) {
	e := NewEditor(2000)

	e.Step(1)
	require.EqualValues(t, 2100, e.Slider)
	e.Step(-3)
	require.EqualValues(t, 1800, e.Slider)

	// Stepping below the floor clamps.
	e.SetSlider(500)
	e.Step(-1)
	require.EqualValues(t, 500, e.Slider)
}
