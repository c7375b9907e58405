// Package service contains the business rules of the task board: who may
// read or change which users, projects and tasks, how project membership is
// synchronised, and when task history rows are written.
//
// Services receive stores through constructor injection and run multi-step
// writes through a store.TxRunner so that the store calls share one
// transaction. Events are emitted only after the transaction commits.
package service
