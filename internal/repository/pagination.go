package repository

import (
	"github.com/uplink-next/internal/constants"

	"gorm.io/gorm"
)

const maxPageSize = 500

// applyPagination 应用分页参数，非法页码按第一页处理。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// applyArchiveScope 归档过滤：默认仅可见，hidden 仅归档，all 不过滤。
func applyArchiveScope(query *gorm.DB, column, scope string) *gorm.DB {
	switch scope {
	case constants.ArchiveScopeHidden:
		return query.Where(column+" = ?", true)
	case constants.ArchiveScopeAll:
		return query
	default:
		return query.Where(column+" = ?", false)
	}
}
