package domain

// TicketStats aggregates ticket counts over a visibility-scoped set.
type TicketStats struct {
	Total      int
	ByStatus   map[TicketStatus]int
	ByPriority map[TicketPriority]int
	ByCategory map[TicketCategory]int
}

// NewTicketStats returns stats with every known bucket present at zero.
func NewTicketStats() TicketStats {
	stats := TicketStats{
		ByStatus:   make(map[TicketStatus]int, len(ticketStatuses)),
		ByPriority: make(map[TicketPriority]int, len(ticketPriorities)),
		ByCategory: make(map[TicketCategory]int, len(ticketCategories)),
	}
	for _, s := range ticketStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range ticketPriorities {
		stats.ByPriority[p] = 0
	}
	for _, c := range ticketCategories {
		stats.ByCategory[c] = 0
	}
	return stats
}

// Add counts n tickets sharing the given status, priority and category.
func (s *TicketStats) Add(status TicketStatus, priority TicketPriority, category TicketCategory, n int) {
	s.Total += n
	s.ByStatus[status] += n
	s.ByPriority[priority] += n
	s.ByCategory[category] += n
}
