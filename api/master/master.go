package master

import (
	"log"
	"net/http"

	allMaster "MedFieldCRM/api/master/allMasters"
	middlewares "MedFieldCRM/api/middlewares"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartMasterService(pgxPool *pgxpool.Pool) {
	mux := http.NewServeMux()
	mux.HandleFunc("/master/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Master Service"))
	})
	prevalidated := middlewares.PreValidationMiddleware(pgxPool)
	/*regions*/
	mux.Handle("/master/regions/create", prevalidated(http.HandlerFunc(allMaster.CreateRegionMaster(pgxPool))))
	mux.Handle("/master/regions/get-all", prevalidated(http.HandlerFunc(allMaster.GetAllRegions(pgxPool))))
	mux.Handle("/master/regions/update", prevalidated(http.HandlerFunc(allMaster.UpdateRegionMaster(pgxPool))))
	mux.Handle("/master/regions/deactivate", prevalidated(http.HandlerFunc(allMaster.DeactivateRegionMaster(pgxPool))))
	/*clinics*/
	mux.Handle("/master/clinics/create", prevalidated(http.HandlerFunc(allMaster.CreateClinicMaster(pgxPool))))
	mux.Handle("/master/clinics/get-all", prevalidated(http.HandlerFunc(allMaster.GetAllClinics(pgxPool))))
	mux.Handle("/master/clinics/update", prevalidated(http.HandlerFunc(allMaster.UpdateClinicMaster(pgxPool))))
	mux.Handle("/master/clinics/deactivate", prevalidated(http.HandlerFunc(allMaster.DeactivateClinicMaster(pgxPool))))
	/*products*/
	mux.Handle("/master/products/create", prevalidated(http.HandlerFunc(allMaster.CreateProductMaster(pgxPool))))
	mux.Handle("/master/products/get-all", prevalidated(http.HandlerFunc(allMaster.GetAllProducts(pgxPool))))
	mux.Handle("/master/products/update", prevalidated(http.HandlerFunc(allMaster.UpdateProductMaster(pgxPool))))
	mux.Handle("/master/products/deactivate", prevalidated(http.HandlerFunc(allMaster.DeactivateProductMaster(pgxPool))))
	mux.Handle("/master/products/upload", prevalidated(http.HandlerFunc(allMaster.UploadProductSheet(pgxPool))))
	/*campaigns*/
	mux.Handle("/master/campaigns/create", prevalidated(http.HandlerFunc(allMaster.CreateCampaignMaster(pgxPool))))
	mux.Handle("/master/campaigns/get-all", prevalidated(http.HandlerFunc(allMaster.GetAllCampaigns(pgxPool))))
	mux.Handle("/master/campaigns/update-status", prevalidated(http.HandlerFunc(allMaster.UpdateCampaignStatus(pgxPool))))

	log.Println("Master Service started on :7243")
	err := http.ListenAndServe(":7243", mux)
	if err != nil {
		log.Fatalf("Master Service failed: %v", err)
	}
}
