package tui

// pageSize is the number of body rows that fit between the header and
// footer: title bar, one line per instruction, breadcrumb, separator and
// footer.
func (m Model) pageSize() int {
	return max(m.height-4-len(m.instructions), 1)
}

// calculateScrollOffset computes the new scroll offset to keep cursor visible within pageSize.
func calculateScrollOffset(cursor, currentOffset, pageSize int) int {
	if cursor < currentOffset {
		return cursor
	}
	if cursor >= currentOffset+pageSize {
		return cursor - pageSize + 1
	}
	return currentOffset
}

// navigateList moves cursor for a list navigation key. It returns false
// for keys that are not navigation keys.
func navigateList(key string, cursor, offset *int, n, pageSize int) bool {
	switch key {
	case "up", "k":
		if *cursor > 0 {
			*cursor--
		}
	case "down", "j":
		if *cursor < n-1 {
			*cursor++
		}
	case "pgup", "ctrl+u":
		*cursor = max(*cursor-pageSize, 0)
	case "pgdown", "ctrl+d":
		*cursor = max(min(*cursor+pageSize, n-1), 0)
	case "home", "g":
		*cursor = 0
	case "end", "G":
		*cursor = max(n-1, 0)
	default:
		return false
	}
	*offset = calculateScrollOffset(*cursor, *offset, pageSize)
	return true
}
