package pricing

// TogglePatch flips a patch in a selection list. A patch already present is removed
// entirely (every occurrence); otherwise it is appended Units times, at least once.
// The input slice is never modified.
func TogglePatch(selected []string, patch Patch) []string {
	out := make([]string, 0, len(selected)+1)
	present := false
	for _, img := range selected {
		if img == patch.Image {
			present = true
			continue
		}
		out = append(out, img)
	}
	if present || patch.Image == "" {
		return out
	}
	units := patch.Units
	if units < 1 {
		units = 1
	}
	for i := 0; i < units; i++ {
		out = append(out, patch.Image)
	}
	return out
}

// CountPatches groups a patch list by image, preserving first-seen order.
func CountPatches(images []string) []PatchCount {
	index := map[string]int{}
	counts := make([]PatchCount, 0, len(images))
	for _, img := range images {
		if i, ok := index[img]; ok {
			counts[i].Count++
			continue
		}
		index[img] = len(counts)
		counts = append(counts, PatchCount{Image: img, Count: 1})
	}
	return counts
}

// PatchCount is the number of occurrences of one patch image on a line.
type PatchCount struct {
	Image string `json:"image"`
	Count int    `json:"count"`
}
