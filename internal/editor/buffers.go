package editor

import "github.com/claude/trainlog/internal/models"

// The nested structures (sets within entries) are treated as immutable:
// every mutation replaces the addressed index in a fresh slice rather than
// writing in place, which keeps the buffer/committed deep-equality check in
// Dirty honest.

// ReplaceSet returns entries with set j of entry i replaced.
func ReplaceSet(entries []models.StrengthEntry, i, j int, rec models.SetRecord) []models.StrengthEntry {
	out := cloneEntries(entries)
	out[i].Sets[j] = rec
	return out
}

// AppendSet returns entries with a placeholder set appended to entry i.
func AppendSet(entries []models.StrengthEntry, i int) []models.StrengthEntry {
	out := cloneEntries(entries)
	out[i].Sets = append(out[i].Sets, models.SetRecord{})
	return out
}

// RemoveSet returns entries with set j of entry i removed.
func RemoveSet(entries []models.StrengthEntry, i, j int) []models.StrengthEntry {
	out := cloneEntries(entries)
	out[i].Sets = append(out[i].Sets[:j:j], out[i].Sets[j+1:]...)
	return out
}

// RemoveEntry returns entries with entry i removed.
func RemoveEntry(entries []models.StrengthEntry, i int) []models.StrengthEntry {
	out := cloneEntries(entries)
	return append(out[:i], out[i+1:]...)
}

// ReplaceCardioEntry returns cardio entries with entry i replaced.
func ReplaceCardioEntry(entries []models.CardioEntry, i int, e models.CardioEntry) []models.CardioEntry {
	out := cloneCardio(entries)
	out[i] = e
	return out
}

// RemoveCardioEntry returns cardio entries with entry i removed.
func RemoveCardioEntry(entries []models.CardioEntry, i int) []models.CardioEntry {
	out := cloneCardio(entries)
	return append(out[:i], out[i+1:]...)
}

func cloneGym(g *models.Gym) *models.Gym {
	if g == nil {
		return nil
	}
	copied := *g
	return &copied
}

func cloneEntries(entries []models.StrengthEntry) []models.StrengthEntry {
	if entries == nil {
		return nil
	}
	out := make([]models.StrengthEntry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Sets = append([]models.SetRecord(nil), e.Sets...)
	}
	return out
}

func cloneCardio(entries []models.CardioEntry) []models.CardioEntry {
	return append([]models.CardioEntry(nil), entries...)
}

func cloneFinish(buf FinishBuffer) FinishBuffer {
	buf.Entries = cloneEntries(buf.Entries)
	buf.Cardio = cloneCardio(buf.Cardio)
	buf.Partners = append([]models.Partner(nil), buf.Partners...)
	return buf
}

func cloneEdit(buf EditBuffer) EditBuffer {
	buf.Gym = cloneGym(buf.Gym)
	buf.Entries = cloneEntries(buf.Entries)
	buf.Cardio = cloneCardio(buf.Cardio)
	buf.Partners = append([]models.Partner(nil), buf.Partners...)
	return buf
}
