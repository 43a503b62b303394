package commands

import "github.com/mamadbah2/restopos/internal/domain/models"

func mutation(a access, run func(c *call) (any, error)) handler {
	return handler{access: a, mutates: true, run: run}
}

func query(a access, run func(c *call) (any, error)) handler {
	return handler{access: a, run: run}
}

// routes is the command catalog with the capability each command requires.
func (s *Service) routes() map[models.CommandType]handler {
	return map[models.CommandType]handler{
		models.CmdSettingsUpdate: mutation(adminOnly, typed(s, s.updateSettings)),

		models.CmdCategoryCreate: mutation(adminOnly, typed(s, s.createCategory)),
		models.CmdCategoryUpdate: mutation(adminOnly, typed(s, s.updateCategory)),
		models.CmdCategoryDelete: mutation(adminOnly, typed(s, s.deleteCategory)),

		models.CmdMenuCreate: mutation(adminOnly, typed(s, s.createMenuItem)),
		models.CmdMenuUpdate: mutation(adminOnly, typed(s, s.updateMenuItem)),
		models.CmdMenuDelete: mutation(adminOnly, typed(s, s.deleteMenuItem)),

		models.CmdStaffCreate:    mutation(adminOnly, typed(s, s.createStaff)),
		models.CmdStaffSetStatus: mutation(adminOnly, typed(s, s.setStaffStatus)),
		models.CmdStaffSetRole:   mutation(adminOnly, typed(s, s.setStaffRole)),
		models.CmdStaffDelete:    mutation(adminOnly, typed(s, s.deleteStaff)),

		models.CmdPromoCreate: mutation(adminOnly, typed(s, s.createPromo)),
		models.CmdPromoUpdate: mutation(adminOnly, typed(s, s.updatePromo)),
		models.CmdPromoDelete: mutation(adminOnly, typed(s, s.deletePromo)),
		models.CmdPromoApply:  query(staffOrAdmin, typed(s, s.applyPromo)),

		models.CmdRevenueReset:  mutation(adminOnly, typed(s, s.resetRevenue)),
		models.CmdRevenueAdjust: mutation(adminOnly, typed(s, s.adjustRevenue)),

		models.CmdOrderCreate:    mutation(staffOrAdmin, typed(s, s.createOrder)),
		models.CmdOrderUpdate:    mutation(staffOrAdmin, typed(s, s.updateOrder)),
		models.CmdOrderDelete:    mutation(staffOrAdmin, typed(s, s.deleteOrder)),
		models.CmdOrderSetStatus: mutation(staffOrAdmin, typed(s, s.setOrderStatus)),

		models.CmdReceiptCreate:  mutation(staffOrAdmin, typed(s, s.createReceipt)),
		models.CmdReceiptPreview: query(staffOrAdmin, typed(s, s.previewReceipt)),

		models.CmdReportExportCSV: query(adminOnly, typed(s, s.exportOrders)),
		models.CmdReportMetrics:   query(adminOnly, typed(s, s.reportMetrics)),

		models.CmdInventoryCreate:     mutation(adminOnly, typed(s, s.createInventory)),
		models.CmdInventoryUpdate:     mutation(adminOnly, typed(s, s.updateInventory)),
		models.CmdInventoryDelete:     mutation(adminOnly, typed(s, s.deleteInventory)),
		models.CmdInventoryArchive:    mutation(adminOnly, typed(s, s.archiveInventory)),
		models.CmdInventorySearch:     query(staffOrAdmin, typed(s, s.searchInventory)),
		models.CmdInventoryLowStock:   query(staffOrAdmin, typed(s, s.lowStock)),
		models.CmdInventoryOutOfStock: query(staffOrAdmin, typed(s, s.outOfStock)),
		models.CmdInventoryMetrics:    query(staffOrAdmin, typed(s, s.inventoryMetrics)),
		models.CmdInventoryLogs:       query(staffOrAdmin, typed(s, s.inventoryLogs)),

		models.CmdCustomerSearch:     query(staffOrAdmin, typed(s, s.searchCustomers)),
		models.CmdCustomerExport:     query(adminOnly, typed(s, s.exportCustomers)),
		models.CmdCustomerGetHistory: query(staffOrAdmin, typed(s, s.customerHistory)),

		models.CmdExportCustomers:        query(adminOnly, typed(s, s.exportCustomers)),
		models.CmdExportInventory:        query(adminOnly, typed(s, s.exportInventory)),
		models.CmdExportStaffPerformance: query(adminOnly, typed(s, s.exportStaffPerformance)),
		models.CmdExportPromoUsage:       query(adminOnly, typed(s, s.exportPromoUsage)),
	}
}
