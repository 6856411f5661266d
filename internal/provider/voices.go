package provider

import "strings"

// Voice is a stock ElevenLabs voice.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var voices = []Voice{
	{ID: "9BWtsMINqrJLrRacOk9x", Name: "Aria"},
	{ID: "CwhRBWXzGAHq8TQ4Fs17", Name: "Roger"},
	{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah"},
	{ID: "FGY2WhTYpPnrIDTdsKH5", Name: "Laura"},
	{ID: "IKne3meq5aSn9XLyUdCD", Name: "Charlie"},
	{ID: "JBFqnCBsd6RMkjVDRZzb", Name: "George"},
	{ID: "N2lVS1w4EtoT3dr4eOWO", Name: "Callum"},
	{ID: "SAz9YHcvj6GT2YYXdXww", Name: "River"},
	{ID: "TX3LPaxmHKxFdv7VOQHJ", Name: "Liam"},
	{ID: "XB0fDUnXU5powFXDhCwa", Name: "Charlotte"},
	{ID: "Xb7hH8MSUJpSbSDYk0k2", Name: "Alice"},
	{ID: "XrExE9yKIg1WjnnlVkGX", Name: "Matilda"},
	{ID: "bIHbv24MWmeRgasZH58o", Name: "Will"},
	{ID: "cgSgspJ2msm6clMCkdW9", Name: "Jessica"},
	{ID: "cjVigY5qzO86Huf0OWal", Name: "Eric"},
	{ID: "iP95p4xoKVk53GoZ742B", Name: "Chris"},
	{ID: "nPczCjzI2devNBz1zQrb", Name: "Brian"},
	{ID: "onwK4e9ZLuTAKqWW03F9", Name: "Daniel"},
	{ID: "pFZP5JQG7iQjIQuC4Bku", Name: "Lily"},
	{ID: "pqHfZKP75CvOlQylNhV4", Name: "Bill"},
}

// Voices returns the stock voice catalogue.
func Voices() []Voice {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return out
}

// LookupVoice finds a voice by ID or by case-insensitive name.
func LookupVoice(nameOrID string) (Voice, bool) {
	key := strings.TrimSpace(nameOrID)
	for _, v := range voices {
		if v.ID == key || strings.EqualFold(v.Name, key) {
			return v, true
		}
	}
	return Voice{}, false
}

// ResolveVoiceID maps a catalogue name to its ID. Anything else is assumed to
// be a voice ID already and returned unchanged.
func ResolveVoiceID(nameOrID string) string {
	if v, ok := LookupVoice(nameOrID); ok {
		return v.ID
	}
	return strings.TrimSpace(nameOrID)
}
