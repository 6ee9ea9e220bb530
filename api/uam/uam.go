package uam

import (
	"MedFieldCRM/api"
	"MedFieldCRM/api/uam/user"
	"database/sql"
	"log"
	"net/http"
)

func StartUAMService(db *sql.DB) {
	mux := http.NewServeMux()
	mux.HandleFunc("/uam/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from UAM Service"))
	})
	scoped := api.RegionScopeMiddleware(db)
	/*users*/
	mux.Handle("/uam/users/create-user", scoped(http.HandlerFunc(user.CreateUser(db))))
	mux.Handle("/uam/users/get-users", scoped(http.HandlerFunc(user.GetUsers(db))))
	mux.Handle("/uam/users/get-user-by-id", scoped(http.HandlerFunc(user.GetUserById(db))))
	mux.Handle("/uam/users/update-user", scoped(http.HandlerFunc(user.UpdateUser(db))))
	mux.Handle("/uam/users/deactivate-user", scoped(http.HandlerFunc(user.DeactivateUser(db))))

	log.Println("UAM Service started on :5143")
	err := http.ListenAndServe(":5143", mux)
	if err != nil {
		log.Fatalf("UAM Service failed: %v", err)
	}
}
