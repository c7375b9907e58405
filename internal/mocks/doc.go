// Package mocks provides shared test doubles: testify mocks for the store
// and service interfaces, a transaction runner that needs no database, and
// simple function-field fakes for the auth interfaces.
//
// Store mocks return themselves from WithTx, so a service under test sees
// the same expectations inside and outside MockTxRunner.RunInTx.
//
//	users := new(mocks.UserStore)
//	users.On("GetByID", mock.Anything, id).Return(user, nil)
//	svc := service.NewUserService(users, new(mocks.ProjectStore), &mocks.MockTxRunner{}, nil, nil)
package mocks
