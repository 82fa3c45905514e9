/*
Package multisafe defines the types shared by all components of the offline
multisignature coordinator: wallets, offline transactions, signing results,
the capability matrix, collaborator interfaces and storage interfaces.

A multisignature (M-of-N) wallet cannot produce a publishable transaction with
a single signing call. Cosigners are rarely online at the same time, so a
partially signed payload travels between their devices (QR code, file,
clipboard) until enough signatures are present. The packages below implement
that ceremony:

  store        key value stores (in-memory btree, leveldb)
  orm          prefixed buckets of validated models
  crypto       secp256k1 keys from BIP32 extended keys, encrypted keystore
  chain        the chain SDK contract
  chain/utxo   chain SDK for a UTXO chain with M-of-N redeem programs
  x/offline    content addressed store of pending transactions
  x/matcher    cosigner signature matching and quorum evaluation
  x/multisig   the Safe and the lifecycle coordinator

There is no shared state between devices other than the serialized payload.
Every check is recomputed from the payload and never from a cached signer
count.
*/
package multisafe
