// Package palette derives display colors for events.
package palette

import (
	"math"
	"strconv"
	"strings"
)

// Stripe colors used when an event carries no explicit color.
const (
	ColorMeeting = "#3b82f6"
	ColorWork    = "#10b981"
	ColorHoliday = "#ef4444"
	ColorSocial  = "#f59e0b"
	ColorNeutral = "#9ca3af"
)

// Foreground colors returned by ReadableTextColor.
const (
	TextDark  = "#000"
	TextLight = "#fff"
)

type keywordColor struct {
	keyword string
	color   string
}

// order matters: first match wins
var typeKeywords = []keywordColor{
	{keyword: "meet", color: ColorMeeting},
	{keyword: "work", color: ColorWork},
	{keyword: "holiday", color: ColorHoliday},
	{keyword: "social", color: ColorSocial},
}

// StripeColor resolves the accent color for an event: its explicit color,
// then the color configured on its type, then a keyword match on the type
// label, then the neutral fallback.
func StripeColor(explicit, typeColor, typeLabel string) string {
	if c := strings.TrimSpace(explicit); c != "" {
		return c
	}
	if c := strings.TrimSpace(typeColor); c != "" {
		return c
	}
	label := strings.ToLower(typeLabel)
	if label != "" {
		for _, kc := range typeKeywords {
			if strings.Contains(label, kc.keyword) {
				return kc.color
			}
		}
	}
	return ColorNeutral
}

// ReadableTextColor picks a dark or light foreground for text drawn on hex.
// Malformed colors are treated as black.
func ReadableTextColor(hex string) string {
	l, _ := Luminance(hex)
	if l > 0.5 {
		return TextDark
	}
	return TextLight
}

// Luminance returns the WCAG relative luminance of a #rgb or #rrggbb color.
// The boolean is false when the input could not be parsed; the luminance is
// then 0.
func Luminance(hex string) (float64, bool) {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return 0, false
	}
	return 0.2126*linearize(r) + 0.7152*linearize(g) + 0.0722*linearize(b), true
}

// RGB parses a 3- or 6-digit hex color, with or without the leading '#'.
func RGB(hex string) (r, g, b uint8, ok bool) {
	return parseHex(hex)
}

func parseHex(hex string) (r, g, b uint8, ok bool) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

func linearize(channel uint8) float64 {
	c := float64(channel) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}
