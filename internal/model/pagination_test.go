package model

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name           string
		page, size     int
		total          int
		wantPage       int
		wantTotalPages int
	}{
		{"exact pages", 1, 10, 30, 1, 3},
		{"partial last page", 2, 10, 25, 2, 3},
		{"page past the end clamps", 9, 10, 25, 3, 3},
		{"zero total", 1, 10, 0, 1, 0},
		{"zero total with high page", 5, 10, 0, 1, 0},
		{"single item", 1, 10, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.size, tt.total)
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantTotalPages)
			}
			if p.Total != tt.total {
				t.Errorf("Total = %d, want %d", p.Total, tt.total)
			}
		})
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, totalPages, want int
	}{
		{0, 5, 1},
		{-3, 5, 1},
		{3, 5, 3},
		{9, 5, 5},
		{1, 0, 1},
		{7, 0, 1},
	}
	for _, tt := range tests {
		if got := ClampPage(tt.page, tt.totalPages); got != tt.want {
			t.Errorf("ClampPage(%d, %d) = %d, want %d", tt.page, tt.totalPages, got, tt.want)
		}
	}
}
