package crm

import (
	"database/sql"
	"log"
	"net/http"

	"MedFieldCRM/api"
	"MedFieldCRM/api/crm/proposal"
	"MedFieldCRM/api/crm/reports"
)

func StartCRMService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/crm/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from CRM Service"))
	})
	scoped := api.RegionScopeMiddleware(db)
	/*proposals*/
	mux.Handle("/crm/proposals/submit", scoped(http.HandlerFunc(proposal.SubmitProposal(db))))
	mux.Handle("/crm/proposals/preview", scoped(http.HandlerFunc(proposal.PreviewProposal(db))))
	mux.Handle("/crm/proposals/expand-campaign", scoped(http.HandlerFunc(proposal.ExpandCampaignHandler(db))))
	mux.Handle("/crm/proposals/get-proposals", scoped(http.HandlerFunc(proposal.GetProposals(db))))
	mux.Handle("/crm/proposals/get-proposal-by-id", scoped(http.HandlerFunc(proposal.GetProposalById(db))))
	mux.Handle("/crm/proposals/update-status", scoped(http.HandlerFunc(proposal.UpdateProposalStatus(db))))
	/*reports*/
	mux.Handle("/crm/surgery-reports/create", scoped(http.HandlerFunc(reports.CreateSurgeryReport(db))))
	mux.Handle("/crm/surgery-reports/get-reports", scoped(http.HandlerFunc(reports.GetSurgeryReports(db))))
	mux.Handle("/crm/visit-reports/create", scoped(http.HandlerFunc(reports.CreateVisitReport(db))))
	mux.Handle("/crm/visit-reports/get-reports", scoped(http.HandlerFunc(reports.GetVisitReports(db))))
	/*notifications*/
	mux.Handle("/crm/notifications/get", scoped(http.HandlerFunc(proposal.GetNotifications())))
	mux.Handle("/crm/notifications/clear", scoped(http.HandlerFunc(proposal.ClearNotifications())))

	log.Println("CRM Service started on :7143")
	err := http.ListenAndServe(":7143", mux)
	if err != nil {
		log.Fatalf("CRM Service failed: %v", err)
	}
}
